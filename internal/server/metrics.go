package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edugenie_generations_total",
		Help: "Question generation calls by outcome.",
	}, []string{"outcome"})

	extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edugenie_extractions_total",
		Help: "Document text extraction calls by outcome.",
	}, []string{"outcome"})
)
