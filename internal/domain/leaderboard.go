package domain

import (
	"sort"
	"time"
)

// Improves reports whether a result ranks strictly ahead of the current best:
// higher percentage, or equal percentage in less time.
func Improves(percentage float64, timeTaken int, bestPercentage float64, bestTime int) bool {
	if percentage != bestPercentage {
		return percentage > bestPercentage
	}
	return timeTaken < bestTime
}

// NewLeaderboardEntry creates the first entry of an identity from its attempt.
func NewLeaderboardEntry(a Attempt, now time.Time) LeaderboardEntry {
	identity := a.Identity()
	return LeaderboardEntry{
		UserID:         identity.UserID,
		Username:       a.Username,
		GuestName:      identity.GuestName,
		QuizID:         a.QuizID,
		BestScore:      a.Score,
		BestPercentage: a.Percentage,
		BestTime:       a.TimeTaken,
		AttemptsCount:  1,
		LastAttemptAt:  now,
	}
}

// Apply folds a completed attempt into the entry. The attempt count always
// grows; the best triple is replaced only when the attempt improves on it.
func (e LeaderboardEntry) Apply(a Attempt, now time.Time) LeaderboardEntry {
	next := e
	next.AttemptsCount++
	next.LastAttemptAt = now
	if Improves(a.Percentage, a.TimeTaken, e.BestPercentage, e.BestTime) {
		next.BestScore = a.Score
		next.BestPercentage = a.Percentage
		next.BestTime = a.TimeTaken
	}
	return next
}

// SortQuizEntries orders entries by percentage desc, score desc, time asc, id asc.
func SortQuizEntries(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.BestPercentage != b.BestPercentage {
			return a.BestPercentage > b.BestPercentage
		}
		if a.BestScore != b.BestScore {
			return a.BestScore > b.BestScore
		}
		if a.BestTime != b.BestTime {
			return a.BestTime < b.BestTime
		}
		return a.ID < b.ID
	})
}

// RankEntries assigns 1-based positions to already ordered entries.
func RankEntries(entries []LeaderboardEntry) []RankedEntry {
	ranked := make([]RankedEntry, 0, len(entries))
	for i, entry := range entries {
		ranked = append(ranked, RankedEntry{Rank: i + 1, LeaderboardEntry: entry})
	}
	return ranked
}

// RankStandings assigns 1-based positions to already ordered standings.
func RankStandings(standings []GlobalStanding) []GlobalStanding {
	for i := range standings {
		standings[i].Rank = i + 1
		standings[i].AveragePercentage = Round2(standings[i].AveragePercentage)
	}
	return standings
}
