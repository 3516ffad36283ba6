// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/gatherly/engine"
	"github.com/danielhkuo/gatherly/models"
	"github.com/danielhkuo/gatherly/testutil"
)

func TestPublish(t *testing.T) {
	eng, conn, rec := testutil.NewTestEngine(t)
	ctx := context.Background()

	id := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhaseDraft, testutil.DefaultConfig())
	testutil.AddTestParticipant(t, conn, id, "member", models.RoleMember)
	testutil.AddTestOption(t, conn, id, "Option A")

	// One option is not a decision.
	err := eng.Publish(ctx, "owner", id)
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("Expected ValidationError with a single option, got %v", err)
	}

	testutil.AddTestOption(t, conn, id, "Option B")

	if err := eng.Publish(ctx, "member", id); !errors.Is(err, engine.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for member publish, got %v", err)
	}
	if err := eng.Publish(ctx, "stranger", id); !errors.Is(err, engine.ErrHangoutNotFound) {
		t.Errorf("Expected ErrHangoutNotFound for stranger, got %v", err)
	}

	if err := eng.Publish(ctx, "owner", id); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhasePolling {
		t.Errorf("Expected phase polling, got %s", phase)
	}

	// Publishing again is a no-op, not a second transition.
	if err := eng.Publish(ctx, "owner", id); err != nil {
		t.Fatalf("Repeat publish should succeed: %v", err)
	}
	if got := rec.Count(engine.EventPhaseChanged); got != 1 {
		t.Errorf("Expected 1 phase_changed event, got %d", got)
	}
}

func TestPublishWrongPhase(t *testing.T) {
	eng, conn, _ := testutil.NewTestEngine(t)
	ctx := context.Background()

	id := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhaseCancelled, testutil.DefaultConfig())
	if err := eng.Publish(ctx, "owner", id); !errors.Is(err, engine.ErrPollClosed) {
		t.Errorf("Expected ErrPollClosed publishing a cancelled hangout, got %v", err)
	}
}

func TestForceConfirm(t *testing.T) {
	eng, conn, rec := testutil.NewTestEngine(t)
	ctx := context.Background()

	id := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, testutil.DefaultConfig())
	testutil.AddTestParticipant(t, conn, id, "member", models.RoleMember)
	testutil.AddTestOption(t, conn, id, "Option A")
	optB := testutil.AddTestOption(t, conn, id, "Option B")

	if err := eng.ForceConfirm(ctx, "member", id, optB); !errors.Is(err, engine.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for member, got %v", err)
	}

	var ve engine.ValidationError
	if err := eng.ForceConfirm(ctx, "owner", id, "no-such-option"); !errors.As(err, &ve) {
		t.Errorf("Expected ValidationError for unknown option, got %v", err)
	}

	// The override settles the poll with no ballots at all.
	if err := eng.ForceConfirm(ctx, "owner", id, optB); err != nil {
		t.Fatalf("ForceConfirm failed: %v", err)
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseRSVPCollection {
		t.Errorf("Expected phase rsvp_collection, got %s", phase)
	}

	var winner string
	if err := conn.QueryRow(`SELECT winning_option_id FROM hangout WHERE id = $1`, id).Scan(&winner); err != nil {
		t.Fatalf("Failed to load winner: %v", err)
	}
	if winner != optB {
		t.Errorf("Expected winning option %s, got %s", optB, winner)
	}
	if got := rec.Count(engine.EventConsensusReached); got != 1 {
		t.Errorf("Expected 1 consensus_reached event, got %d", got)
	}

	// Settled is settled.
	if err := eng.ForceConfirm(ctx, "owner", id, optB); !errors.Is(err, engine.ErrPollClosed) {
		t.Errorf("Expected ErrPollClosed on second confirm, got %v", err)
	}
}

func TestForceConfirmRemovedOption(t *testing.T) {
	eng, conn, _ := testutil.NewTestEngine(t)
	ctx := context.Background()

	id := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, testutil.DefaultConfig())
	testutil.AddTestOption(t, conn, id, "Option A")
	testutil.AddTestOption(t, conn, id, "Option B")
	optC := testutil.AddTestOption(t, conn, id, "Option C")

	if err := eng.RemoveOption(ctx, "owner", id, optC); err != nil {
		t.Fatalf("RemoveOption failed: %v", err)
	}
	if err := eng.ForceConfirm(ctx, "owner", id, optC); !errors.Is(err, engine.ErrOptionRemoved) {
		t.Errorf("Expected ErrOptionRemoved, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	eng, conn, rec := testutil.NewTestEngine(t)
	ctx := context.Background()

	id := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, testutil.DefaultConfig())
	testutil.AddTestParticipant(t, conn, id, "member", models.RoleMember)

	if err := eng.Cancel(ctx, "member", id); !errors.Is(err, engine.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for member cancel, got %v", err)
	}

	if err := eng.Cancel(ctx, "owner", id); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseCancelled {
		t.Errorf("Expected phase cancelled, got %s", phase)
	}

	// Idempotent.
	if err := eng.Cancel(ctx, "owner", id); err != nil {
		t.Fatalf("Repeat cancel should succeed: %v", err)
	}
	if got := rec.Count(engine.EventPhaseChanged); got != 1 {
		t.Errorf("Expected 1 phase_changed event, got %d", got)
	}

	completedID := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhaseCompleted, testutil.DefaultConfig())
	if err := eng.Cancel(ctx, "owner", completedID); !errors.Is(err, engine.ErrPhaseNotOpen) {
		t.Errorf("Expected ErrPhaseNotOpen cancelling a completed hangout, got %v", err)
	}
}

// TestConfirmationIsStable verifies that roster changes after confirmation
// never reopen the decision, even though they shift the eligible count the
// threshold was measured against.
func TestConfirmationIsStable(t *testing.T) {
	eng, conn, _ := testutil.NewTestEngine(t)
	ctx := context.Background()

	cfg := models.ConsensusConfig{Threshold: 60, MinimumParticipants: 2, DeadlineFallback: models.FallbackCancel}
	id := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, cfg)
	testutil.AddTestParticipant(t, conn, id, "u2", models.RoleMember)
	optA := testutil.AddTestOption(t, conn, id, "Option A")
	testutil.AddTestOption(t, conn, id, "Option B")

	if _, err := eng.CastVote(ctx, "owner", id, optA); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if _, err := eng.CastVote(ctx, "u2", id, optA); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseRSVPCollection {
		t.Fatalf("Expected confirmation, phase is %s", phase)
	}

	// Growing the roster would dilute the winner below threshold, but the
	// confirmed state does not recompute.
	for _, u := range []string{"u3", "u4", "u5"} {
		if err := eng.AddParticipant(ctx, "owner", id, u, models.RoleMember); err != nil {
			t.Fatalf("AddParticipant failed: %v", err)
		}
	}

	// The option registry is sealed along with the poll.
	if err := eng.RemoveOption(ctx, "owner", id, optA); !errors.Is(err, engine.ErrPollClosed) {
		t.Errorf("Expected ErrPollClosed removing an option after confirmation, got %v", err)
	}

	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseRSVPCollection {
		t.Errorf("Expected phase to stay rsvp_collection, got %s", phase)
	}
	var winner string
	if err := conn.QueryRow(`SELECT winning_option_id FROM hangout WHERE id = $1`, id).Scan(&winner); err != nil {
		t.Fatalf("Failed to load winner: %v", err)
	}
	if winner != optA {
		t.Errorf("Winner changed after confirmation: %s", winner)
	}
}

// TestMandatoryDemotionUnblocks verifies that demoting the lone missing
// mandatory voter completes a consensus that was otherwise satisfied.
func TestMandatoryDemotionUnblocks(t *testing.T) {
	eng, conn, rec := testutil.NewTestEngine(t)
	ctx := context.Background()

	cfg := models.ConsensusConfig{
		Threshold:             50,
		MinimumParticipants:   2,
		RequireMandatoryVotes: true,
		DeadlineFallback:      models.FallbackCancel,
	}
	id := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, cfg)
	testutil.AddTestParticipant(t, conn, id, "u2", models.RoleMember)
	testutil.AddTestParticipant(t, conn, id, "vip", models.RoleMandatory)
	optA := testutil.AddTestOption(t, conn, id, "Option A")
	testutil.AddTestOption(t, conn, id, "Option B")

	if _, err := eng.CastVote(ctx, "owner", id, optA); err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	resp, err := eng.CastVote(ctx, "u2", id, optA)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if !resp.Result.Blocked {
		t.Fatal("Expected consensus blocked on the missing mandatory voter")
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhasePolling {
		t.Fatalf("Blocked poll must stay open, phase is %s", phase)
	}

	if err := eng.SetParticipantRole(ctx, "owner", id, "vip", models.RoleMember); err != nil {
		t.Fatalf("SetParticipantRole failed: %v", err)
	}

	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseRSVPCollection {
		t.Errorf("Expected demotion to complete consensus, phase is %s", phase)
	}
	if got := rec.Count(engine.EventConsensusReached); got != 1 {
		t.Errorf("Expected 1 consensus_reached event, got %d", got)
	}
}

func TestTickDeadlineFallbacks(t *testing.T) {
	eng, conn, _ := testutil.NewTestEngine(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)

	// Below threshold with a strict leader: plurality confirms it.
	pluralityCfg := models.ConsensusConfig{Threshold: 90, MinimumParticipants: 1, DeadlineFallback: models.FallbackPlurality}
	pluralityID := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, pluralityCfg)
	testutil.AddTestParticipant(t, conn, pluralityID, "u2", models.RoleMember)
	testutil.AddTestParticipant(t, conn, pluralityID, "u3", models.RoleMember)
	leaderOpt := testutil.AddTestOption(t, conn, pluralityID, "Leader")
	otherOpt := testutil.AddTestOption(t, conn, pluralityID, "Other")
	testutil.CastTestBallot(t, conn, pluralityID, "u2", leaderOpt)
	testutil.CastTestBallot(t, conn, pluralityID, "u3", leaderOpt)
	testutil.CastTestBallot(t, conn, pluralityID, "owner", otherOpt)
	testutil.SetHangoutTimes(t, conn, pluralityID, &past, nil, nil)

	// Same shape with the cancel fallback.
	cancelCfg := models.ConsensusConfig{Threshold: 90, MinimumParticipants: 1, DeadlineFallback: models.FallbackCancel}
	cancelID := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, cancelCfg)
	testutil.AddTestParticipant(t, conn, cancelID, "u2", models.RoleMember)
	testutil.AddTestParticipant(t, conn, cancelID, "u3", models.RoleMember)
	cOpt := testutil.AddTestOption(t, conn, cancelID, "Option A")
	testutil.AddTestOption(t, conn, cancelID, "Option B")
	testutil.CastTestBallot(t, conn, cancelID, "owner", cOpt)
	testutil.SetHangoutTimes(t, conn, cancelID, &past, nil, nil)

	// Plurality fallback with a tie has no leader to confirm.
	tieID := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, pluralityCfg)
	testutil.AddTestParticipant(t, conn, tieID, "u2", models.RoleMember)
	tieA := testutil.AddTestOption(t, conn, tieID, "Option A")
	tieB := testutil.AddTestOption(t, conn, tieID, "Option B")
	testutil.CastTestBallot(t, conn, tieID, "owner", tieA)
	testutil.CastTestBallot(t, conn, tieID, "u2", tieB)
	testutil.SetHangoutTimes(t, conn, tieID, &past, nil, nil)

	n, err := eng.Tick(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 transitions, got %d", n)
	}

	if phase := testutil.HangoutPhase(t, conn, pluralityID); phase != models.PhaseRSVPCollection {
		t.Errorf("Plurality fallback: expected rsvp_collection, got %s", phase)
	}
	var winner string
	if err := conn.QueryRow(`SELECT winning_option_id FROM hangout WHERE id = $1`, pluralityID).Scan(&winner); err != nil {
		t.Fatalf("Failed to load winner: %v", err)
	}
	if winner != leaderOpt {
		t.Errorf("Plurality fallback: expected winner %s, got %s", leaderOpt, winner)
	}

	if phase := testutil.HangoutPhase(t, conn, cancelID); phase != models.PhaseCancelled {
		t.Errorf("Cancel fallback: expected cancelled, got %s", phase)
	}
	if phase := testutil.HangoutPhase(t, conn, tieID); phase != models.PhaseCancelled {
		t.Errorf("Tied plurality: expected cancelled, got %s", phase)
	}

	// A second tick finds nothing left to do.
	n, err = eng.Tick(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("Second tick failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected idle second tick, got %d transitions", n)
	}
}

func TestTickStartAndEnd(t *testing.T) {
	eng, conn, rec := testutil.NewTestEngine(t)
	ctx := context.Background()

	id := testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhaseRSVPCollection, testutil.DefaultConfig())
	start := time.Now().UTC().Add(-2 * time.Hour)
	end := time.Now().UTC().Add(time.Hour)
	testutil.SetHangoutTimes(t, conn, id, nil, &start, &end)

	n, err := eng.Tick(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 transition, got %d", n)
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseActive {
		t.Errorf("Expected phase active, got %s", phase)
	}

	// Not past the end yet.
	n, err = eng.Tick(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected no transitions before ends_at, got %d", n)
	}

	n, err = eng.Tick(ctx, end.Add(time.Minute))
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 transition past ends_at, got %d", n)
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseCompleted {
		t.Errorf("Expected phase completed, got %s", phase)
	}

	if got := rec.Count(engine.EventPhaseChanged); got != 2 {
		t.Errorf("Expected 2 phase_changed events, got %d", got)
	}
}

func TestTickSkipsHangoutsWithoutTimes(t *testing.T) {
	eng, conn, _ := testutil.NewTestEngine(t)
	ctx := context.Background()

	testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhasePolling, testutil.DefaultConfig())
	testutil.CreateTestHangout(t, conn, "owner", models.PrivacyPrivate, models.PhaseRSVPCollection, testutil.DefaultConfig())

	n, err := eng.Tick(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Hangouts without scheduled times should never tick, got %d transitions", n)
	}
}
