// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/gatherly/engine"
	"github.com/danielhkuo/gatherly/models"
	"github.com/danielhkuo/gatherly/testutil"
)

// TestFullHangoutLifecycle walks one hangout from creation to completion:
// draft with options, publish, votes converging on consensus, RSVP
// collection, and the clock transitions into active and completed.
func TestFullHangoutLifecycle(t *testing.T) {
	eng, conn, rec := testutil.NewTestEngine(t)
	hangouts := NewHangoutHandler(eng)
	voting := NewVotingHandler(eng)
	social := NewSocialHandler(eng)
	clock := NewClockHandler(eng)

	actor := func(id string) map[string]string {
		return map[string]string{"X-Actor-ID": id}
	}

	// user1 creates the hangout.
	createReq := models.CreateHangoutRequest{
		Title:       "Team dinner",
		Description: "Pick a spot",
		Privacy:     models.PrivacyPrivate,
		Config: models.ConsensusConfig{
			Threshold:           60,
			MinimumParticipants: 2,
			DeadlineFallback:    models.FallbackCancel,
		},
	}
	req := testutil.MakeRequest("POST", "/hangouts", createReq, actor("user1"))
	w := httptest.NewRecorder()
	hangouts.CreateHangout(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.CreateHangoutResponse
	testutil.AssertJSON(t, w, &created)
	id := created.HangoutID

	// Two options.
	var optionIDs []string
	for _, title := range []string{"Ramen place", "Taco truck"} {
		body := models.AddOptionRequest{Payload: json.RawMessage(`{"title":"` + title + `"}`)}
		req = testutil.MakeRequest("POST", "/hangouts/"+id+"/options", body, actor("user1"))
		req.SetPathValue("id", id)
		w = httptest.NewRecorder()
		hangouts.AddOption(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var opt models.AddOptionResponse
		testutil.AssertJSON(t, w, &opt)
		optionIDs = append(optionIDs, opt.OptionID)
	}

	// Two more participants join the roster: three eligible voters.
	for _, user := range []string{"user2", "user3"} {
		body := models.AddParticipantRequest{UserID: user, Role: models.RoleMember}
		req = testutil.MakeRequest("POST", "/hangouts/"+id+"/participants", body, actor("user1"))
		req.SetPathValue("id", id)
		w = httptest.NewRecorder()
		social.AddParticipant(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	// Open the poll.
	req = testutil.MakeRequest("POST", "/hangouts/"+id+"/publish", nil, actor("user1"))
	req.SetPathValue("id", id)
	w = httptest.NewRecorder()
	hangouts.Publish(w, req)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	// First vote: 1 of 3 is below the 60% threshold.
	vote := func(user, optionID string) *httptest.ResponseRecorder {
		body := models.CastVoteRequest{OptionID: optionID}
		req := testutil.MakeRequest("POST", "/hangouts/"+id+"/ballots", body, actor(user))
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		voting.CastVote(w, req)
		return w
	}

	w = vote("user1", optionIDs[0])
	testutil.AssertStatus(t, w, http.StatusCreated)
	var voteResp models.CastVoteResponse
	testutil.AssertJSON(t, w, &voteResp)
	if voteResp.Result.Reached {
		t.Fatal("One vote of three should not reach consensus")
	}

	// Second aligned vote crosses the threshold and settles the poll.
	w = vote("user2", optionIDs[0])
	testutil.AssertStatus(t, w, http.StatusCreated)
	testutil.AssertJSON(t, w, &voteResp)
	if !voteResp.Result.Reached {
		t.Fatal("Two of three votes at 60% should reach consensus")
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseRSVPCollection {
		t.Fatalf("Expected rsvp_collection after consensus, got %s", phase)
	}
	if got := rec.Count(engine.EventConsensusReached); got != 1 {
		t.Errorf("Expected 1 consensus_reached event, got %d", got)
	}

	// The third voter arrives too late.
	testutil.AssertStatus(t, vote("user3", optionIDs[1]), http.StatusConflict)

	// RSVPs come in.
	rsvp := func(user, status string) {
		body := models.SetRSVPRequest{Status: status}
		req := testutil.MakeRequest("PUT", "/hangouts/"+id+"/rsvp", body, actor(user))
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		social.SetRSVP(w, req)
		testutil.AssertStatus(t, w, http.StatusNoContent)
	}
	rsvp("user1", models.RSVPYes)
	rsvp("user2", models.RSVPYes)
	rsvp("user3", models.RSVPNo)

	req = testutil.MakeRequest("GET", "/hangouts/"+id+"/rsvps", nil, actor("user1"))
	req.SetPathValue("id", id)
	w = httptest.NewRecorder()
	social.GetRSVPSummary(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var summary models.RSVPSummaryResponse
	testutil.AssertJSON(t, w, &summary)
	if summary.Counts[models.RSVPYes] != 2 || summary.Counts[models.RSVPNo] != 1 {
		t.Errorf("Unexpected RSVP counts: %+v", summary.Counts)
	}

	// The start time arrives; the clock moves the hangout to active.
	start := time.Now().UTC().Add(-time.Minute)
	end := time.Now().UTC().Add(time.Hour)
	testutil.SetHangoutTimes(t, conn, id, nil, &start, &end)

	tick := func() models.TickResponse {
		req := testutil.MakeRequest("POST", "/tick", nil, nil)
		w := httptest.NewRecorder()
		clock.Tick(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.TickResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	if resp := tick(); resp.Transitions != 1 {
		t.Errorf("Expected 1 transition at start time, got %d", resp.Transitions)
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseActive {
		t.Fatalf("Expected phase active, got %s", phase)
	}

	// And past the end time, to completed.
	pastEnd := time.Now().UTC().Add(-time.Second)
	testutil.SetHangoutTimes(t, conn, id, nil, &start, &pastEnd)

	if resp := tick(); resp.Transitions != 1 {
		t.Errorf("Expected 1 transition at end time, got %d", resp.Transitions)
	}
	if phase := testutil.HangoutPhase(t, conn, id); phase != models.PhaseCompleted {
		t.Fatalf("Expected phase completed, got %s", phase)
	}

	// Terminal means terminal: no cancelling a completed hangout.
	req = testutil.MakeRequest("POST", "/hangouts/"+id+"/cancel", nil, actor("user1"))
	req.SetPathValue("id", id)
	w = httptest.NewRecorder()
	hangouts.Cancel(w, req)
	testutil.AssertStatus(t, w, http.StatusConflict)
}

// TestFriendsOnlyVisibilityFlow exercises the friendship surface end to
// end: a friends_only hangout opens up once the owner befriends a user,
// and closes again on block.
func TestFriendsOnlyVisibilityFlow(t *testing.T) {
	eng, conn, _ := testutil.NewTestEngine(t)
	hangouts := NewHangoutHandler(eng)
	social := NewSocialHandler(eng)

	id := testutil.CreateTestHangout(t, conn, "alice", models.PrivacyFriendsOnly, models.PhaseDraft, testutil.DefaultConfig())

	get := func(actorID string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("GET", "/hangouts/"+id, nil,
			map[string]string{"X-Actor-ID": actorID})
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		hangouts.GetHangout(w, req)
		return w
	}

	befriend := func(other, status string) {
		body := models.SetFriendshipRequest{UserID: other, Status: status}
		req := testutil.MakeRequest("PUT", "/friendships", body,
			map[string]string{"X-Actor-ID": "alice"})
		w := httptest.NewRecorder()
		social.SetFriendship(w, req)
		testutil.AssertStatus(t, w, http.StatusNoContent)
	}

	testutil.AssertStatus(t, get("dana"), http.StatusNotFound)

	befriend("dana", models.FriendshipActive)
	testutil.AssertStatus(t, get("dana"), http.StatusOK)

	befriend("dana", models.FriendshipBlocked)
	testutil.AssertStatus(t, get("dana"), http.StatusNotFound)
}
