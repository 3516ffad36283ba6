// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"sort"

	"github.com/danielhkuo/gatherly/models"
)

// Evaluate computes the current consensus state from options, ballots, and
// the participant set. It is a pure function: no I/O, no side effects, and
// deterministic for the same inputs regardless of call order. That is what
// makes "re-evaluate after every vote" safe to run unconditionally.
//
// Rules:
//
//   - Only live (non-removed) options are tallied. Ballots referencing a
//     removed option still count toward TotalBallots for the
//     minimum-participants floor, but not toward any option.
//   - The winner is the option with the strict maximum count. A shared
//     maximum is a tie: no winner, Tie = true. Ties never auto-resolve.
//   - Consensus is reached only when the winner's share of the current
//     eligible-participant count meets cfg.Threshold AND total ballots
//     meet cfg.MinimumParticipants.
//   - With cfg.RequireMandatoryVotes set, any mandatory participant who
//     has not voted blocks consensus; MissingMandatory lists them.
//
// The eligible count is len(participants) as of now, not a historical
// peak, so joins and removals shift the denominator.
func Evaluate(options []models.Option, ballots []models.Ballot, participants []models.Participant, cfg models.ConsensusConfig) models.ConsensusResult {
	res := models.ConsensusResult{
		TotalBallots:  len(ballots),
		EligibleCount: len(participants),
	}

	live := make(map[string]bool, len(options))
	for _, opt := range options {
		if !opt.Removed {
			live[opt.ID] = true
		}
	}

	counts := make(map[string]int, len(live))
	voted := make(map[string]bool, len(ballots))
	for _, b := range ballots {
		voted[b.VoterID] = true
		if live[b.OptionID] {
			counts[b.OptionID]++
		}
	}

	// Strict maximum over live options with at least one vote.
	maxVotes := 0
	var leaders []string
	for id, n := range counts {
		switch {
		case n > maxVotes:
			maxVotes = n
			leaders = []string{id}
		case n == maxVotes:
			leaders = append(leaders, id)
		}
	}

	if maxVotes > 0 {
		if len(leaders) == 1 {
			winner := leaders[0]
			res.WinnerOptionID = &winner
			res.WinnerVotes = maxVotes
		} else {
			res.Tie = true
		}
	}

	if res.EligibleCount > 0 && res.WinnerOptionID != nil {
		res.Percent = float64(res.WinnerVotes*100) / float64(res.EligibleCount)
	}

	if cfg.RequireMandatoryVotes {
		for _, p := range participants {
			if p.Role == models.RoleMandatory && !voted[p.UserID] {
				res.MissingMandatory = append(res.MissingMandatory, p.UserID)
			}
		}
		sort.Strings(res.MissingMandatory)
		res.Blocked = len(res.MissingMandatory) > 0
	}

	res.Reached = res.WinnerOptionID != nil &&
		!res.Blocked &&
		res.Percent >= cfg.Threshold &&
		res.TotalBallots >= cfg.MinimumParticipants

	return res
}

// Tally returns per-option vote counts for live options, in option order.
// Removed options and ballots referencing them are excluded.
func Tally(options []models.Option, ballots []models.Ballot) []models.OptionTally {
	counts := make(map[string]int, len(options))
	live := make([]models.Option, 0, len(options))
	for _, opt := range options {
		if !opt.Removed {
			live = append(live, opt)
		}
	}
	for _, b := range ballots {
		counts[b.OptionID]++
	}

	tallies := make([]models.OptionTally, 0, len(live))
	for _, opt := range live {
		tallies = append(tallies, models.OptionTally{OptionID: opt.ID, Votes: counts[opt.ID]})
	}
	return tallies
}
