/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionBankIDsUnique(t *testing.T) {
	seen := make(map[int]bool)
	for _, q := range questionBank {
		assert.Positive(t, q.ID)
		assert.False(t, seen[q.ID], "duplicate question id %d", q.ID)
		assert.Contains(t, []string{kindTruth, kindDare}, q.Type)
		assert.Contains(t, []string{levelEasy, levelMedium, levelHot}, q.Level)
		assert.NotEmpty(t, q.Text)

		seen[q.ID] = true
	}
}

func TestQuestionsOf(t *testing.T) {
	tests := []struct {
		kind string
		want int
	}{
		{kindTruth, 8},
		{kindDare, 8},
		{"lie", 0},
		{"", 0},
	}

	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			got := questionsOf(tc.kind)
			assert.Len(t, got, tc.want)

			last := 0
			for _, q := range got {
				assert.Equal(t, tc.kind, q.Type)
				assert.Greater(t, q.ID, last, "catalog order not preserved")
				last = q.ID
			}
		})
	}
}
