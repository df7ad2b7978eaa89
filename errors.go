/*
 * errors.go, part of gomsm.
 *
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package msm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the class of a goMSM error.
type Kind int

const (
	UnknownKind Kind = iota
	ShapeMismatch
	InvalidConfig
	TrajectoryTooShort
	SubsampleInfeasible
)

func (k Kind) String() string {
	switch k {
	case ShapeMismatch:
		return "shape mismatch"
	case InvalidConfig:
		return "invalid configuration"
	case TrajectoryTooShort:
		return "trajectory too short"
	case SubsampleInfeasible:
		return "subsample infeasible"
	default:
		return "error"
	}
}

// Sentinels for errors.Is. Only the kind is compared, so they match
// any CError of the same kind, whatever its message.
var (
	ErrShapeMismatch       = &CError{kind: ShapeMismatch, msg: "shape mismatch"}
	ErrInvalidConfig       = &CError{kind: InvalidConfig, msg: "invalid configuration"}
	ErrTrajectoryTooShort  = &CError{kind: TrajectoryTooShort, msg: "trajectory too short"}
	ErrSubsampleInfeasible = &CError{kind: SubsampleInfeasible, msg: "subsample infeasible"}
)

// CError is the common error type for goMSM. It implements Error.
type CError struct {
	msg      string
	kind     Kind
	deco     []string
	critical bool
}

// Errorf returns a new error of the given kind, decorated with caller.
// All kinds except SubsampleInfeasible are critical.
func Errorf(kind Kind, caller string, format string, a ...any) *CError {
	e := &CError{msg: fmt.Sprintf(format, a...), kind: kind, critical: kind != SubsampleInfeasible}
	if caller != "" {
		e.deco = []string{caller}
	}
	return e
}

// Warnf is like Errorf, but the returned error is never critical.
func Warnf(kind Kind, caller string, format string, a ...any) *CError {
	e := Errorf(kind, caller, format, a...)
	e.critical = false
	return e
}

func (err *CError) Error() string {
	s := fmt.Sprintf("goMSM %s: %s", err.kind, err.msg)
	if len(err.deco) > 0 {
		s += " (" + strings.Join(err.deco, " < ") + ")"
	}
	return s
}

// Decorate adds the caller to the error's call chain and returns the chain.
func (err *CError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Kind returns the kind of the error.
func (err *CError) Kind() Kind { return err.kind }

// Critical returns false only for errors that merely degrade a result.
func (err *CError) Critical() bool { return err.critical }

// Is reports whether target is a CError of the same kind.
func (err *CError) Is(target error) bool {
	t, ok := target.(*CError)
	return ok && t.kind == err.kind
}

// ErrDecorate decorates err with caller if it implements Error,
// and returns it. Other errors are returned unchanged.
func ErrDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	var e Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}
