package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func driveFixture() []DriveItem {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	return []DriveItem{
		{ID: "f1", Name: "report.pdf", Size: 300, ModifiedAt: base.Add(3 * time.Hour)},
		{ID: "d1", Name: "zeta", IsFolder: true, ModifiedAt: base.Add(time.Hour)},
		{ID: "f2", Name: "archive.zip", Size: 100, ModifiedAt: base.Add(5 * time.Hour)},
		{ID: "d2", Name: "alpha", IsFolder: true, ModifiedAt: base.Add(4 * time.Hour)},
		{ID: "f3", Name: "Budget.xlsx", Size: 200, ModifiedAt: base},
	}
}

func ids(items []DriveItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestSortDriveItemsFoldersAlwaysFirst(t *testing.T) {
	for _, key := range []DriveSortKey{DriveSortName, DriveSortModified, DriveSortSize} {
		for _, desc := range []bool{false, true} {
			items := driveFixture()
			SortDriveItems(items, key, desc)

			assert.True(t, items[0].IsFolder, "key=%s desc=%v", key, desc)
			assert.True(t, items[1].IsFolder, "key=%s desc=%v", key, desc)
			for _, it := range items[2:] {
				assert.False(t, it.IsFolder, "key=%s desc=%v", key, desc)
			}
		}
	}
}

func TestSortDriveItemsByName(t *testing.T) {
	items := driveFixture()
	SortDriveItems(items, DriveSortName, false)

	// Case-insensitive within each group.
	assert.Equal(t, []string{"d2", "d1", "f2", "f3", "f1"}, ids(items))
}

func TestSortDriveItemsByModified(t *testing.T) {
	items := driveFixture()
	SortDriveItems(items, DriveSortModified, false)

	assert.Equal(t, []string{"d1", "d2", "f3", "f1", "f2"}, ids(items))
}

func TestSortDriveItemsBySize(t *testing.T) {
	items := driveFixture()
	SortDriveItems(items, DriveSortSize, false)

	assert.Equal(t, []string{"f2", "f3", "f1"}, ids(items)[2:])
}

func TestSortDriveItemsDescending(t *testing.T) {
	items := driveFixture()
	SortDriveItems(items, DriveSortName, true)

	// Folders stay first even when the direction is reversed.
	assert.Equal(t, []string{"d1", "d2"}, ids(items)[:2])
	assert.Equal(t, []string{"f1", "f3", "f2"}, ids(items)[2:])
}

func TestSortDriveItemsStableOnTies(t *testing.T) {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	items := []DriveItem{
		{ID: "a", Name: "same.txt", Size: 10, ModifiedAt: base},
		{ID: "b", Name: "same.txt", Size: 10, ModifiedAt: base},
		{ID: "c", Name: "same.txt", Size: 10, ModifiedAt: base},
	}
	SortDriveItems(items, DriveSortSize, false)

	assert.Equal(t, []string{"a", "b", "c"}, ids(items))
}

func TestSortDriveItemsStableOnTiesDescending(t *testing.T) {
	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	items := []DriveItem{
		{ID: "a", Name: "same.txt", Size: 10, ModifiedAt: base},
		{ID: "b", Name: "same.txt", Size: 10, ModifiedAt: base},
		{ID: "c", Name: "same.txt", Size: 10, ModifiedAt: base},
	}

	// Reversing the direction must not reverse (or scramble) full ties.
	for _, key := range []DriveSortKey{DriveSortName, DriveSortModified, DriveSortSize} {
		SortDriveItems(items, key, true)
		assert.Equal(t, []string{"a", "b", "c"}, ids(items), "key=%s", key)
	}
}
