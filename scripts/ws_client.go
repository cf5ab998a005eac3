// Package main runs a demo WebSocket client that replays a tour trace.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"

	"github.com/gorilla/websocket"

	"tourlab/internal/logging"
)

type playbackMessage struct {
	Type       string `json:"type"`
	Index      *int   `json:"index,omitempty"`
	Len        int    `json:"len,omitempty"`
	CanForward bool   `json:"canForward,omitempty"`
	Step       *struct {
		Tour       []int   `json:"Tour"`
		TourLength float64 `json:"Tourlength"`
		Start      string  `json:"Start"`
		Direction  string  `json:"Direction"`
	} `json:"step,omitempty"`
	Message string `json:"message,omitempty"`
}

func main() {
	log := logging.New(os.Stderr, "info", "console")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	strategy := "human-model"
	if len(os.Args) > 1 {
		strategy = os.Args[1]
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	post := func(path string, in, out any) {
		body, _ := json.Marshal(in)
		resp, err := http.Post(base+path, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("request failed")
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 300 {
			log.Fatal().Int("status", resp.StatusCode).Str("path", path).Msg("request rejected")
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatal().Err(err).Msg("decode")
		}
	}

	// A random problem on a 20x20 grid
	nodes := make([]map[string]int, 12)
	for i := range nodes {
		nodes[i] = map[string]int{"x": rand.Intn(20), "y": rand.Intn(20)}
	}
	var problem struct {
		ID string `json:"id"`
	}
	post("/v1/problems", map[string]any{"name": "ws demo", "nodes": nodes}, &problem)
	var trace struct {
		ID string `json:"id"`
	}
	post("/v1/problems/"+problem.ID+"/tours", map[string]any{"strategy": strategy}, &trace)
	log.Info().Str("problem", problem.ID).Str("trace", trace.ID).Msg("trace built")

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/traces/" + trace.ID + "/play"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("dial")
	}
	defer func() { _ = c.Close() }()

	var m playbackMessage
	if err := c.ReadJSON(&m); err != nil {
		log.Fatal().Err(err).Msg("read")
	}
	// rewind, then step forward to the finished tour
	if err := c.WriteJSON(playbackMessage{Type: "first"}); err != nil {
		log.Fatal().Err(err).Msg("write")
	}
	for {
		if err := c.ReadJSON(&m); err != nil {
			log.Fatal().Err(err).Msg("read")
		}
		if m.Type != "step" || m.Step == nil {
			log.Fatal().Str("type", m.Type).Str("message", m.Message).Msg("unexpected reply")
		}
		log.Info().Int("index", *m.Index).Int("of", m.Len).Ints("tour", m.Step.Tour).
			Float64("length", m.Step.TourLength).Str("start", m.Step.Start).
			Str("direction", m.Step.Direction).Msg("step")
		if !m.CanForward {
			return
		}
		if err := c.WriteJSON(playbackMessage{Type: "next"}); err != nil {
			log.Fatal().Err(err).Msg("write")
		}
	}
}
