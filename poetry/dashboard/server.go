// Package dashboard serves the decoded poetry: thematic groupings, the LLM's favorite
// poems, emoji reactions, and a reader vote form.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/theimaginaryfoundation/poetry-decoded/poetry"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))

var medals = map[int]string{1: "🥇", 2: "🥈", 3: "🥉"}

// Server renders the latest stored snapshot and records votes.
type Server struct {
	Store    poetry.ObjectStore
	Votes    poetry.VoteStore
	Display  DisplayConfig
	Prefixes Prefixes
	// Now stamps votes. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger

	renderer inlineRenderer

	mu   sync.RWMutex
	snap *Snapshot
}

// NewServer returns a server with an empty snapshot; call Reload to load data.
func NewServer(store poetry.ObjectStore, votes poetry.VoteStore, display DisplayConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if display.MaxSelections <= 0 {
		display.MaxSelections = DefaultDisplayConfig().MaxSelections
	}
	return &Server{
		Store:    store,
		Votes:    votes,
		Display:  display,
		Now:      time.Now,
		Logger:   logger,
		renderer: newInlineRenderer(),
		snap:     &Snapshot{Emoji: poetry.EmojiOutput{}},
	}
}

// Reload replaces the snapshot with the latest stored data. On error the previous
// snapshot stays in place.
func (s *Server) Reload(ctx context.Context) error {
	snap, err := LoadSnapshot(ctx, s.Store, s.Prefixes, s.Logger)
	if err != nil {
		return fmt.Errorf("Server.Reload: %w", err)
	}
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

// Snapshot returns the data currently served.
func (s *Server) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Handler builds the gin engine.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.Logger))
	r.SetHTMLTemplate(pageTemplate)

	r.GET("/", s.handleIndex)
	r.POST("/votes", s.handleVoteForm)
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api")
	api.GET("/poems", s.handlePoems)
	api.GET("/emoji", s.handleEmoji)
	api.GET("/llm", s.handleLLM)
	api.POST("/votes", s.handleVoteJSON)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

type themeCard struct {
	Emoji       string
	Title       string
	Description template.HTML
}

type favoriteView struct {
	Medal       string
	Title       string
	Description template.HTML
}

type reactionView struct {
	Title         string
	Emoji         string
	LowConfidence bool
}

type pageData struct {
	LLMFile       string
	Themes        []themeCard
	Favorites     []favoriteView
	Reactions     []reactionView
	Titles        []string
	MaxSelections int
	Voted         []string
	Error         string
}

func (s *Server) page(snap *Snapshot) pageData {
	data := pageData{
		Titles:        poemTitles(snap.Poems),
		MaxSelections: s.Display.MaxSelections,
	}
	if snap.LLMKey != "" {
		data.LLMFile = path.Base(snap.LLMKey)
	}
	for _, th := range poetry.ExtractCategories(snap.LLM.Categories) {
		data.Themes = append(data.Themes, themeCard{
			Emoji:       s.Display.themeEmoji(th.Title),
			Title:       th.Title,
			Description: s.renderer.Render(th.Description),
		})
	}
	for _, f := range poetry.ExtractFavorites(snap.LLM.Favorites) {
		data.Favorites = append(data.Favorites, favoriteView{
			Medal:       medals[f.Rank],
			Title:       f.Title,
			Description: s.renderer.Render(f.Description),
		})
	}
	for _, p := range snap.Poems {
		if p.Language != poetry.LanguageEnglish {
			continue
		}
		emoji := snap.Emoji[p.Slug].Emoji
		if emoji == "" {
			emoji = s.Display.MissingEmoji
		}
		data.Reactions = append(data.Reactions, reactionView{
			Title:         p.Title,
			Emoji:         emoji,
			LowConfidence: s.Display.isLowConfidence(p.Slug),
		})
	}
	return data
}

// poemTitles lists distinct titles in collection order.
func poemTitles(poems []poetry.PoemRecord) []string {
	seen := make(map[string]bool, len(poems))
	var out []string
	for _, p := range poems {
		if p.Title == "" || seen[p.Title] {
			continue
		}
		seen[p.Title] = true
		out = append(out, p.Title)
	}
	return out
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", s.page(s.Snapshot()))
}

func (s *Server) handleHealth(c *gin.Context) {
	snap := s.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"poems":     len(snap.Poems),
		"llm":       snap.LLMKey,
		"emoji":     snap.EmojiKey,
		"loaded_at": snap.LoadedAt,
	})
}

func (s *Server) handlePoems(c *gin.Context) {
	poems := s.Snapshot().Poems
	if poems == nil {
		poems = []poetry.PoemRecord{}
	}
	c.JSON(http.StatusOK, poems)
}

func (s *Server) handleEmoji(c *gin.Context) {
	c.JSON(http.StatusOK, s.Snapshot().Emoji)
}

func (s *Server) handleLLM(c *gin.Context) {
	snap := s.Snapshot()
	themes := poetry.ExtractCategories(snap.LLM.Categories)
	if themes == nil {
		themes = []poetry.Theme{}
	}
	favorites := poetry.ExtractFavorites(snap.LLM.Favorites)
	if favorites == nil {
		favorites = []poetry.Favorite{}
	}
	c.JSON(http.StatusOK, gin.H{
		"key":       snap.LLMKey,
		"analysis":  snap.LLM,
		"themes":    themes,
		"favorites": favorites,
	})
}

type voteRequest struct {
	Selections []string `json:"selections"`
}

func (s *Server) handleVoteJSON(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	vote, status, err := s.castVote(c.Request.Context(), req.Selections)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, vote)
}

func (s *Server) handleVoteForm(c *gin.Context) {
	snap := s.Snapshot()
	data := s.page(snap)
	vote, status, err := s.castVote(c.Request.Context(), c.PostFormArray("selections"))
	if err != nil {
		data.Error = err.Error()
		c.HTML(status, "index.html", data)
		return
	}
	data.Voted = vote.Selections
	c.HTML(http.StatusOK, "index.html", data)
}

var errVotesUnavailable = errors.New("voting is not available")

func (s *Server) castVote(ctx context.Context, selections []string) (poetry.Vote, int, error) {
	if s.Votes == nil {
		return poetry.Vote{}, http.StatusServiceUnavailable, errVotesUnavailable
	}
	known := make(map[string]bool)
	for _, t := range poemTitles(s.Snapshot().Poems) {
		known[t] = true
	}
	clean, err := validateSelections(selections, known, s.Display.MaxSelections)
	if err != nil {
		return poetry.Vote{}, http.StatusBadRequest, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	vote := poetry.Vote{Selections: clean, Timestamp: now().UTC()}
	if err := s.Votes.AppendVote(ctx, vote); err != nil {
		s.Logger.Error("append vote failed", "error", err)
		return poetry.Vote{}, http.StatusInternalServerError, errors.New("could not record vote")
	}
	s.Logger.Info("vote recorded", "selections", len(clean))
	return vote, http.StatusCreated, nil
}

// validateSelections accepts 1..max distinct titles that exist in the collection.
func validateSelections(selections []string, known map[string]bool, max int) ([]string, error) {
	seen := make(map[string]bool, len(selections))
	var clean []string
	for _, sel := range selections {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		if !known[sel] {
			return nil, fmt.Errorf("unknown poem %q", sel)
		}
		if seen[sel] {
			return nil, fmt.Errorf("poem %q selected twice", sel)
		}
		seen[sel] = true
		clean = append(clean, sel)
	}
	if len(clean) == 0 {
		return nil, errors.New("select at least one poem")
	}
	if len(clean) > max {
		return nil, fmt.Errorf("select at most %d poems", max)
	}
	return clean, nil
}
