package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrich_FillsFromPreferences(t *testing.T) {
	prefs := Preferences{ExamType: "GCSE", ExamBoard: "AQA", Subjects: []string{" ", "Biology", "Chemistry"}}

	got := Enrich(StructuredQuery{Topic: "cells"}, prefs)

	assert.Equal(t, StructuredQuery{
		ExamType:    "GCSE",
		ExamBoard:   "AQA",
		Subject:     "Biology",
		Topic:       "cells",
		RequestType: RequestGeneral,
	}, got)
}

func TestEnrich_KeepsPresentFields(t *testing.T) {
	partial := StructuredQuery{ExamType: "IB", ExamBoard: "Edexcel", Subject: "Physics", RequestType: RequestFlashcards}
	prefs := Preferences{ExamType: "GCSE", ExamBoard: "AQA", Subjects: []string{"Biology"}}

	assert.Equal(t, partial, Enrich(partial, prefs))
}

func TestEnrich_NoPreferences(t *testing.T) {
	got := Enrich(StructuredQuery{}, Preferences{})

	assert.Equal(t, StructuredQuery{RequestType: RequestGeneral}, got)
}

func TestEnrich_UnknownRequestTypeBecomesGeneral(t *testing.T) {
	got := Enrich(StructuredQuery{RequestType: "podcast"}, Preferences{})

	assert.Equal(t, RequestGeneral, got.RequestType)
}
