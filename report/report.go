//Package report summarizes a train/test split, per trajectory, as tables and plots,
//and estimates the decorrelation time of the features, as a guide to choose a lag time.
package report

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"io"
	"strconv"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/split"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Partitions a trajectory can belong to.
const (
	Train    = "train"
	Test     = "test"
	Excluded = "excluded"
)

//Row describes what happened to one trajectory in a split.
type Row struct {
	Traj      int
	Partition string
	Frames    int
	Pairs     int     //pairs from this trajectory in its set, after subsampling
	Mean      float64 //over all frames and features
	Std       float64
}

//Summarize returns one row per trajectory in trajs, which must be the trajectories
//d was built from.
func Summarize(trajs []*msm.FeatureMatrix, d *split.Dataset) ([]Row, error) {
	if len(trajs) != len(d.Lengths) {
		return nil, msm.Errorf(msm.ShapeMismatch, "Summarize", "%d trajectories for a split of %d", len(trajs), len(d.Lengths))
	}
	part := make([]string, len(trajs))
	for _, i := range d.TrainTrajs {
		part[i] = Train
	}
	for _, i := range d.TestTrajs {
		part[i] = Test
	}
	for _, i := range d.Excluded {
		part[i] = Excluded
	}
	pairs := make([]int, len(trajs))
	for _, P := range []*split.Pairs{d.Train, d.Test} {
		if P == nil {
			continue
		}
		for _, o := range P.Origin {
			pairs[o.Traj]++
		}
	}
	rows := make([]Row, len(trajs))
	for i, t := range trajs {
		rows[i] = Row{Traj: i, Partition: part[i], Frames: t.Frames(), Pairs: pairs[i]}
		if t.Frames() == 0 {
			continue
		}
		vals := t.Dense().RawMatrix().Data
		if t.Dense().RawMatrix().Stride != t.NFeatures() {
			vals = make([]float64, 0, t.Frames()*t.NFeatures())
			for j := 0; j < t.Frames(); j++ {
				vals = append(vals, t.RawFrame(j)...)
			}
		}
		rows[i].Mean, rows[i].Std = stat.MeanStdDev(vals, nil)
	}
	return rows, nil
}

// WriteCSV writes rows, with a header, to w.
func WriteCSV(w io.Writer, rows []Row) error {
	c := csv.NewWriter(w)
	c.Write([]string{"traj", "partition", "frames", "pairs", "mean", "std"})
	for _, r := range rows {
		c.Write([]string{
			strconv.Itoa(r.Traj),
			r.Partition,
			strconv.Itoa(r.Frames),
			strconv.Itoa(r.Pairs),
			strconv.FormatFloat(r.Mean, 'g', 8, 64),
			strconv.FormatFloat(r.Std, 'g', 8, 64),
		})
	}
	c.Flush()
	if err := c.Error(); err != nil {
		return fmt.Errorf("WriteCSV: %w", err)
	}
	return nil
}

var partColors = map[string]color.Color{
	Train:    color.RGBA{R: 20, G: 80, B: 200, A: 255},
	Test:     color.RGBA{R: 200, G: 30, B: 30, A: 255},
	Excluded: color.RGBA{R: 120, G: 120, B: 120, A: 255},
}

//PlotSplit draws a bar chart with the number of frames of each trajectory, colored by
//partition, and saves it to filename. The format is given by the extension of filename.
func PlotSplit(rows []Row, title, filename string) error {
	if len(rows) == 0 {
		return msm.Errorf(msm.InvalidConfig, "PlotSplit", "nothing to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Trajectory"
	p.Y.Label.Text = "Frames"
	w := vg.Points(6)
	//one bar series per partition, with zeros for the trajectories in other partitions,
	//so the bars stay in trajectory order.
	for _, part := range []string{Train, Test, Excluded} {
		vals := make(plotter.Values, len(rows))
		found := false
		for i, r := range rows {
			if r.Partition == part {
				vals[i] = float64(r.Frames)
				found = true
			}
		}
		if !found {
			continue
		}
		b, err := plotter.NewBarChart(vals, w)
		if err != nil {
			return fmt.Errorf("PlotSplit: %w", err)
		}
		b.Color = partColors[part]
		b.LineStyle.Width = vg.Length(0)
		p.Add(b)
		p.Legend.Add(part, b)
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())
	if err := p.Save(8*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("PlotSplit: %w", err)
	}
	return nil
}
