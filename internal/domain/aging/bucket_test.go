package aging_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xtm888/medflow-clinic-sub000/internal/domain/aging"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		days int
		want aging.Bucket
	}{
		{-3, aging.BucketCurrent},
		{0, aging.BucketCurrent},
		{29, aging.BucketCurrent},
		{30, aging.Bucket30},
		{59, aging.Bucket30},
		{60, aging.Bucket60},
		{89, aging.Bucket60},
		{90, aging.Bucket90Plus},
		{400, aging.Bucket90Plus},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, aging.Classify(tt.days), "días=%d", tt.days)
	}
}

func TestClassify_Exhaustive(t *testing.T) {
	asOf := time.Date(2025, 12, 31, 18, 0, 0, 0, time.UTC)
	var totals aging.Totals
	for days := -10; days < 200; days++ {
		issued := asOf.AddDate(0, 0, -days)
		b := aging.Classify(aging.AgeInDays(issued, asOf))

		hits := 0
		for _, candidate := range aging.Buckets {
			if candidate == b {
				hits++
			}
		}
		assert.Equal(t, 1, hits, "cada factura cae en exactamente un tramo")
		totals.Add(b, decimal.NewFromInt(1))
	}
	sum := totals.Current.Add(totals.Days30).Add(totals.Days60).Add(totals.Days90)
	assert.True(t, sum.Equal(totals.Total))
	assert.Equal(t, 210, totals.Invoices)
}

func TestAgeInDays_IgnoresTimeOfDay(t *testing.T) {
	issued := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)
	asOf := time.Date(2025, 1, 31, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 30, aging.AgeInDays(issued, asOf))
}
