package router

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/design"
	"github.com/OpenTraceLab/OpenTraceFPGA/pkg/device"
)

// Sentinels for errors.Is matching of the typed routing errors.
var (
	ErrMappingNotFound  = errors.New("no LCB mapping")
	ErrUnreachableSink  = errors.New("unreachable sink")
	ErrIllegalRouteThru = errors.New("illegal route-through")
)

// MappingNotFoundError reports a clock sink pin with no leaf clock buffer
// mapping. It is never retried.
type MappingNotFoundError struct {
	Net *design.Net
	Pin *design.SitePinInst
}

func (e *MappingNotFoundError) Error() string {
	return "No mapped LCB to SitePinInst " + e.Pin.String()
}

func (e *MappingNotFoundError) Is(target error) bool {
	return target == ErrMappingNotFound
}

// UnreachableSinkError reports a sink no legal path reaches.
type UnreachableSinkError struct {
	Net    *design.Net
	Pin    *design.SitePinInst
	Reason string
}

func (e *UnreachableSinkError) Error() string {
	msg := fmt.Sprintf("Unable to route %s of net %s", e.Pin, e.Net.Name)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *UnreachableSinkError) Is(target error) bool {
	return target == ErrUnreachableSink
}

// IllegalRouteThruError reports a path that would commit a route-through the
// filter rejects.
type IllegalRouteThruError struct {
	Net *design.Net
	PIP *device.PIP
}

func (e *IllegalRouteThruError) Error() string {
	return fmt.Sprintf("Illegal route-through %s on net %s", e.PIP, e.Net.Name)
}

func (e *IllegalRouteThruError) Is(target error) bool {
	return target == ErrIllegalRouteThru
}
