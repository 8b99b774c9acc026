// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"fmt"
	"io"
	"strings"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/handlers"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// Router maps command patterns of one or two words ("tally",
// "candidate add") to handlers
type Router struct {
	routes map[string]middleware.HandlerFunc
	usage  []string
}

func New() *Router {
	return &Router{routes: make(map[string]middleware.HandlerFunc)}
}

// HandleFunc registers h under pattern. Every handler gets a request id
// and command logging.
func (r *Router) HandleFunc(pattern, usage string, h middleware.HandlerFunc) {
	if _, dup := r.routes[pattern]; dup {
		panic(fmt.Sprintf("router: duplicate pattern %q", pattern))
	}
	r.routes[pattern] = middleware.WithRequestID(middleware.WithLogging(h))
	r.usage = append(r.usage, usage)
}

// Dispatch runs the handler for tokens. Two-word patterns take precedence.
func (r *Router) Dispatch(w io.Writer, sess *models.Session, tokens []string) {
	if len(tokens) == 0 {
		return
	}

	n := 1
	if len(tokens) >= 2 {
		if _, ok := r.routes[tokens[0]+" "+tokens[1]]; ok {
			n = 2
		}
	}
	pattern := strings.Join(tokens[:n], " ")

	h, ok := r.routes[pattern]
	if !ok {
		middleware.ErrorResponse(w, middleware.KindUsage, fmt.Sprintf("unknown command %q; type help", pattern))
		return
	}

	h(w, sess, &models.Request{Verb: pattern, Args: tokens[n:]})
}

// Help writes the usage line of every registered command
func (r *Router) Help(w io.Writer, sess *models.Session, req *models.Request) {
	for _, u := range r.usage {
		middleware.TextResponse(w, "  %s", u)
	}
	middleware.TextResponse(w, "  quit")
}

func NewRouter(l *ledger.Ledger, cfg cliparse.Config) *Router {
	r := New()

	// Initialize handlers
	voterHandler := handlers.NewVoterHandler(l)
	adminHandler := handlers.NewAdminHandler(l, cfg)
	resultsHandler := handlers.NewResultsHandler(l, cfg)

	r.HandleFunc("help", "help", r.Help)

	// Public
	r.HandleFunc("status", "status [json]", resultsHandler.Status)
	r.HandleFunc("candidates", "candidates", resultsHandler.Candidates)
	r.HandleFunc("register", "register <id> <name> <secret>", voterHandler.Register)
	r.HandleFunc("login", "login <id> <secret>", voterHandler.Login)
	r.HandleFunc("admin", "admin <user> <pass>", adminHandler.Login)
	r.HandleFunc("logout", "logout", voterHandler.Logout)

	// Voter
	r.HandleFunc("vote", "vote <candidateId>", middleware.RequireVoter(voterHandler.Vote))

	// Admin
	r.HandleFunc("candidate add", "candidate add <name> <dept>", middleware.RequireAdmin(adminHandler.AddCandidate))
	r.HandleFunc("candidate remove", "candidate remove <id>", middleware.RequireAdmin(adminHandler.RemoveCandidate))
	r.HandleFunc("election start", "election start", middleware.RequireAdmin(adminHandler.StartElection))
	r.HandleFunc("election stop", "election stop", middleware.RequireAdmin(adminHandler.StopElection))
	r.HandleFunc("total", "total", middleware.RequireAdmin(resultsHandler.Total))
	r.HandleFunc("tally", "tally", middleware.RequireAdmin(resultsHandler.Tally))
	r.HandleFunc("winner", "winner", middleware.RequireAdmin(resultsHandler.Winner))
	r.HandleFunc("verify", "verify", middleware.RequireAdmin(resultsHandler.Verify))
	r.HandleFunc("export", "export [path]", middleware.RequireAdmin(resultsHandler.Export))

	return r
}
