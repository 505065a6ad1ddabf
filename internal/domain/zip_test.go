package domain

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipDirectory_FirstRowWins(t *testing.T) {
	dir := NewZipDirectory([]ZipEntry{
		{Zip: "10001", City: "New York"},
		{Zip: "07030", City: "Hoboken"},
		{Zip: "10001", City: "Duplicate"},
	})

	assert.Equal(t, 2, dir.Len())
	e, ok := dir.Lookup("10001")
	require.True(t, ok)
	assert.Equal(t, "New York", e.City)

	_, ok = dir.Lookup("99999")
	assert.False(t, ok)
	assert.Equal(t, "07030", dir.Entries()[1].Zip)
}

func TestZipDirectory_Nil(t *testing.T) {
	var dir *ZipDirectory
	assert.Equal(t, 0, dir.Len())
	assert.Nil(t, dir.Entries())
	_, ok := dir.Lookup("10001")
	assert.False(t, ok)
}

func TestZipEntry_Point(t *testing.T) {
	p, ok := ZipEntry{Lat: 40.75, Lng: -73.99, Located: true}.Point()
	require.True(t, ok)
	assert.Equal(t, orb.Point{-73.99, 40.75}, p)

	_, ok = ZipEntry{}.Point()
	assert.False(t, ok)
}
