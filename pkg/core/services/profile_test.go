package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/model"
)

func TestProfile(t *testing.T) {
	m := model.Member{FullName: "Ann Lee", TotalDonations: 1750, IsPreviousYearDonor: true}

	p := Profile(m, levels.Default)

	require.NotNil(t, p.Progress.Current)
	require.NotNil(t, p.Progress.Next)
	assert.Equal(t, "ducal-crown-club", p.Progress.Current.Slug)
	assert.Equal(t, "the-1971-society", p.Progress.Next.Slug)
	assert.Equal(t, 750.0, p.Progress.Remaining)
	assert.InDelta(t, 50.0, p.Progress.Percent, 1e-9)
	assert.Equal(t, DonorStatusPrevious, p.Status)
	assert.Equal(t, "previous-year-donor", p.NameStyle)
	assert.Equal(t, "$1,750", p.TotalText)
}

func TestProfile_NoGiving(t *testing.T) {
	p := Profile(model.Member{FullName: "New Member"}, levels.Default)

	assert.Nil(t, p.Progress.Current)
	require.NotNil(t, p.Progress.Next)
	assert.Equal(t, "sigma-circle", p.Progress.Next.Slug)
	assert.Equal(t, 0.0, p.Progress.Remaining)
	assert.Equal(t, DonorStatusNone, p.Status)
	assert.Equal(t, "", p.NameStyle)
}

func TestProfile_TopTier(t *testing.T) {
	p := Profile(model.Member{TotalDonations: 80000, IsCurrentYearDonor: true}, levels.Default)

	assert.True(t, p.Progress.TopReached)
	assert.Nil(t, p.Progress.Next)
	assert.Equal(t, 100.0, p.Progress.Percent)
	assert.Equal(t, DonorStatusCurrent, p.Status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		member model.Member
		want   DonorStatus
		style  string
	}{
		{"deceased wins", model.Member{IsDeceased: true, IsCurrentYearDonor: true, TotalDonations: 10}, DonorStatusDeceased, "deceased"},
		{"current", model.Member{IsCurrentYearDonor: true, IsPreviousYearDonor: true, TotalDonations: 10}, DonorStatusCurrent, "current-year-donor"},
		{"previous", model.Member{IsPreviousYearDonor: true, TotalDonations: 10}, DonorStatusPrevious, "previous-year-donor"},
		{"lapsed", model.Member{TotalDonations: 10}, DonorStatusLapsed, ""},
		{"none", model.Member{}, DonorStatusNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.member))
			assert.Equal(t, tt.style, NameStyle(tt.member))
		})
	}
}

func TestFindByRoll(t *testing.T) {
	members := testMembers()

	m, ok := FindByRoll(members, "120")
	require.True(t, ok)
	assert.Equal(t, "Bob Ray", m.FullName)

	m, ok = FindByRoll(members, "214-0007")
	require.True(t, ok)
	assert.Equal(t, "Ann Lee", m.FullName)

	_, ok = FindByRoll(members, "999")
	assert.False(t, ok)
	_, ok = FindByRoll(members, " ")
	assert.False(t, ok)
}
