package services

import "math"

// Stats is the vote breakdown of a dilemma.
type Stats struct {
	TotalVotes  int64 `json:"total_votes"`
	VotesA      int64 `json:"votes_a"`
	VotesB      int64 `json:"votes_b"`
	PercentageA int   `json:"percentage_a"`
	PercentageB int   `json:"percentage_b"`
}

// ProjectStats turns raw counts into rounded percentages. Each percentage is
// rounded on its own, so the pair may sum to 99 or 101. No votes means 0/0.
func ProjectStats(votesA, votesB int64) Stats {
	s := Stats{
		TotalVotes: votesA + votesB,
		VotesA:     votesA,
		VotesB:     votesB,
	}
	if s.TotalVotes == 0 {
		return s
	}
	s.PercentageA = percentage(votesA, s.TotalVotes)
	s.PercentageB = percentage(votesB, s.TotalVotes)
	return s
}

func percentage(part, total int64) int {
	return int(math.Round(float64(part) / float64(total) * 100))
}
