// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/gatherly/engine"
	"github.com/danielhkuo/gatherly/handlers"
	"github.com/danielhkuo/gatherly/middleware"
)

func NewRouter(eng *engine.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	hangoutHandler := handlers.NewHangoutHandler(eng)
	votingHandler := handlers.NewVotingHandler(eng)
	socialHandler := handlers.NewSocialHandler(eng)
	clockHandler := handlers.NewClockHandler(eng)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Hangout lifecycle
	mux.HandleFunc("POST /hangouts", middleware.WithLogging(hangoutHandler.CreateHangout))
	mux.HandleFunc("GET /hangouts/{id}", middleware.WithLogging(hangoutHandler.GetHangout))
	mux.HandleFunc("POST /hangouts/{id}/options", middleware.WithLogging(hangoutHandler.AddOption))
	mux.HandleFunc("DELETE /hangouts/{id}/options/{optionID}", middleware.WithLogging(hangoutHandler.RemoveOption))
	mux.HandleFunc("POST /hangouts/{id}/publish", middleware.WithLogging(hangoutHandler.Publish))
	mux.HandleFunc("POST /hangouts/{id}/confirm", middleware.WithLogging(hangoutHandler.ForceConfirm))
	mux.HandleFunc("POST /hangouts/{id}/cancel", middleware.WithLogging(hangoutHandler.Cancel))

	// Voting
	mux.HandleFunc("POST /hangouts/{id}/ballots", middleware.WithLogging(votingHandler.CastVote))
	mux.HandleFunc("DELETE /hangouts/{id}/ballots", middleware.WithLogging(votingHandler.RetractVote))
	mux.HandleFunc("GET /hangouts/{id}/my-ballot", middleware.WithLogging(votingHandler.GetMyBallot))
	mux.HandleFunc("GET /hangouts/{id}/results", middleware.WithLogging(votingHandler.GetResults))

	// Roster, friendships, RSVPs
	mux.HandleFunc("POST /hangouts/{id}/participants", middleware.WithLogging(socialHandler.AddParticipant))
	mux.HandleFunc("GET /hangouts/{id}/participants", middleware.WithLogging(socialHandler.ListParticipants))
	mux.HandleFunc("PUT /hangouts/{id}/participants/{userID}", middleware.WithLogging(socialHandler.SetRole))
	mux.HandleFunc("PUT /friendships", middleware.WithLogging(socialHandler.SetFriendship))
	mux.HandleFunc("PUT /hangouts/{id}/rsvp", middleware.WithLogging(socialHandler.SetRSVP))
	mux.HandleFunc("GET /hangouts/{id}/rsvps", middleware.WithLogging(socialHandler.GetRSVPSummary))

	// Clock trigger for external schedulers
	mux.HandleFunc("POST /tick", middleware.WithLogging(clockHandler.Tick))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("gatherly API v1"))
	})

	return mux
}
