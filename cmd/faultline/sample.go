package main

import (
	"errors"
	"strconv"
	"strings"

	"faultline/internal/frame"
)

// The demo failures below are shipped with the binary so their tracebacks
// carry source context wherever the binary runs.

type order struct {
	ID    int
	Items []string
	Total float64
}

var prices = map[string]float64{
	"keyboard": 49.90,
	"mouse":    19.90,
}

//go:noinline
func checkout(raw string, items ...string) order {
	o, err := loadOrder(raw)
	if err != nil {
		o = order{}
	}
	o.Items = items
	o.Total = total(o.Items, 0)
	return o
}

//go:noinline
func loadOrder(raw string) (order, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(raw, "#"))
	if err != nil {
		return order{}, frame.Bind(frame.WithStack(err), "raw", raw)
	}
	return order{ID: id}, nil
}

//go:noinline
func total(items []string, percentOff int) float64 {
	if percentOff <= 0 || percentOff > 100 {
		panic(frame.Bind(errors.New("discount out of range"), "items", items, "percentOff", percentOff))
	}
	var sum float64
	for _, it := range items {
		sum += prices[it]
	}
	return sum * float64(100-percentOff) / 100
}
