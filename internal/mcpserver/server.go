// Package mcpserver exposes meeting extraction and match state as MCP tools
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/biz/usecase"
	"github.com/DevRickLin/matchmate/internal/logging"
)

// Tool names
const (
	ToolExtractMeeting = "extract_meeting"
	ToolPreviewEvent   = "preview_calendar_event"
	ToolListMatches    = "list_matches"
)

// Server provides MCP tools over the agent's stores
type Server struct {
	server    *mcp.Server
	dateUC    *usecase.DateCheckUsecase
	credsRepo repo.CredentialsRepo
	dedup     repo.DedupRepo
	log       *logging.Logger
}

// NewServer creates a new MCP server and registers its tools
func NewServer(dateUC *usecase.DateCheckUsecase, credsRepo repo.CredentialsRepo, dedup repo.DedupRepo, version string) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "matchmate",
			Version: version,
		}, nil),
		dateUC:    dateUC,
		credsRepo: credsRepo,
		dedup:     dedup,
		log:       logging.New("MCP"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolExtractMeeting,
		Description: "Ask the language model whether a chat transcript contains an agreed date, time and place to meet.",
	}, s.handleExtractMeeting)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolPreviewEvent,
		Description: "Show the calendar event that would be booked for a meeting commitment, without booking it.",
	}, s.handlePreviewEvent)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolListMatches,
		Description: "List the matches seen so far, oldest first.",
	}, s.handleListMatches)
}

// ExtractMeetingInput is the input for extract_meeting
type ExtractMeetingInput struct {
	Transcript string `json:"transcript" jsonschema:"the conversation, one message per line"`
}

// MeetingOutput is a meeting commitment
type MeetingOutput struct {
	Found    bool   `json:"found"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Location string `json:"location,omitempty"`
}

func (s *Server) handleExtractMeeting(ctx context.Context, req *mcp.CallToolRequest, input ExtractMeetingInput) (*mcp.CallToolResult, MeetingOutput, error) {
	if input.Transcript == "" {
		return nil, MeetingOutput{}, errors.New("transcript is required")
	}

	creds, err := s.credsRepo.Load(ctx)
	if err != nil {
		return nil, MeetingOutput{}, fmt.Errorf("load credentials: %w", err)
	}

	commitment, err := s.dateUC.Extract(ctx, creds, input.Transcript)
	if err != nil {
		return nil, MeetingOutput{}, err
	}
	s.log.Debugf("extract_meeting: found=%v", commitment.HasDate())

	return nil, MeetingOutput{
		Found:    commitment.HasDate(),
		Date:     commitment.Date,
		Time:     commitment.Time,
		Location: commitment.Location,
	}, nil
}

// PreviewEventInput is the input for preview_calendar_event
type PreviewEventInput struct {
	Date     string `json:"date" jsonschema:"meeting day as YYYY-MM-DD"`
	Time     string `json:"time" jsonschema:"meeting time as HH:MM, 24 hour clock"`
	Location string `json:"location,omitempty" jsonschema:"meeting place, may be empty"`
	MatchID  string `json:"match_id,omitempty" jsonschema:"match the meeting is with"`
}

// EventOutput is a calendar event
type EventOutput struct {
	Title       string `json:"title"`
	Location    string `json:"location"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
}

func (s *Server) handlePreviewEvent(ctx context.Context, req *mcp.CallToolRequest, input PreviewEventInput) (*mcp.CallToolResult, EventOutput, error) {
	commitment := domain.MeetingCommitment{Date: input.Date, Time: input.Time, Location: input.Location}
	if err := usecase.ValidateCommitment(commitment); err != nil {
		return nil, EventOutput{}, err
	}

	event := domain.NewCalendarEvent(commitment, input.MatchID)
	return nil, EventOutput{
		Title:       event.Title,
		Location:    event.Location,
		Start:       event.Start.Format(time.RFC3339),
		End:         event.End.Format(time.RFC3339),
		Description: event.Description,
	}, nil
}

// ListMatchesInput is the input for list_matches
type ListMatchesInput struct{}

// MatchInfo is one seen match
type MatchInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	SeenAt string `json:"seen_at"`
}

// ListMatchesOutput is the output for list_matches
type ListMatchesOutput struct {
	Matches []MatchInfo `json:"matches"`
}

func (s *Server) handleListMatches(ctx context.Context, req *mcp.CallToolRequest, input ListMatchesInput) (*mcp.CallToolResult, ListMatchesOutput, error) {
	seen, err := s.dedup.List(ctx, domain.SetMatches)
	if err != nil {
		return nil, ListMatchesOutput{}, fmt.Errorf("list matches: %w", err)
	}

	out := ListMatchesOutput{Matches: make([]MatchInfo, 0, len(seen))}
	for _, item := range seen {
		out.Matches = append(out.Matches, MatchInfo{
			ID:     item.ID,
			Name:   item.Label,
			SeenAt: item.SeenAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// GetServer returns the underlying MCP server
func (s *Server) GetServer() *mcp.Server {
	return s.server
}
