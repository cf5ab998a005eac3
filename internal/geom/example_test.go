package geom_test

import (
	"fmt"

	"tourlab/internal/geom"
	"tourlab/internal/model"
)

func ExampleHullAsIDs() {
	var ns model.NodeSet
	ns = ns.Add(0, 0, model.Black)
	ns = ns.Add(10, 0, model.Black)
	ns = ns.Add(10, 10, model.Black)
	ns = ns.Add(0, 10, model.Black)
	ns = ns.Add(5, 5, model.Black)

	ids, _ := geom.HullAsIDs(ns)
	fmt.Println(ids, geom.PathLength(ns, 1, ids))
	// Output: [0 1 2 3 0] 40
}

func ExampleConvexHull() {
	pts := []geom.Point{{0, 0}, {4, 0}, {2, 0}, {2, 3}, {2, 1}}
	fmt.Println(geom.ConvexHull(pts))
	// Output: [{0 0} {2 0} {4 0} {2 3}]
}
