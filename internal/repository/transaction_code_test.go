package repository

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jkamau/filamu/internal/model"
)

var codeRe = regexp.MustCompile(`^(MOV|SER)\d{11}$`)

func TestNewCodeFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		movie := newCode(model.KindMovie)
		assert.Regexp(t, codeRe, movie)
		assert.Equal(t, "MOV", movie[:3])

		series := newCode(model.KindSeries)
		assert.Regexp(t, codeRe, series)
		assert.Equal(t, "SER", series[:3])
	}
}
