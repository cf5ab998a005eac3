package tour_test

import (
	"fmt"

	"tourlab/internal/model"
	"tourlab/internal/tour"
)

func ExampleBuilder_HumanModel() {
	var ns model.NodeSet
	ns = ns.Add(0, 0, model.Black)
	ns = ns.Add(10, 0, model.Black)
	ns = ns.Add(10, 10, model.Black)
	ns = ns.Add(0, 10, model.Black)

	start := 0
	tr := tour.NewSeededBuilder(1).HumanModel(ns, tour.Options{Scale: 1, Start: &start, Direction: tour.CounterClockwise})
	final, _ := tr.Final()
	fmt.Println(len(tr), final.Tour, final.TourLength, final.Direction)
	// Output: 2 [0 3 2 1 0] 40 Counter Clockwise
}

func ExampleStepper() {
	tr := tour.Trace{tour.EmptySolution(), {Tour: tour.Tour{0}}, {Tour: tour.Tour{0, 0}}}
	s := tour.NewStepper(tr)
	s.First()
	fmt.Println(s.Next().Tour, s.CanBack(), s.CanForward())
	// Output: [0] true true
}
