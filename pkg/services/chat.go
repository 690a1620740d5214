// Package services contains the conversation orchestrator and its KPI
// side-channel. Handlers stay thin; every turn flows through ChatService.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casepulse-ai/casepulse-engine/pkg/adapters/datasource"
	"github.com/casepulse-ai/casepulse-engine/pkg/apperrors"
	"github.com/casepulse-ai/casepulse-engine/pkg/chatstate"
	"github.com/casepulse-ai/casepulse-engine/pkg/dimensions"
	"github.com/casepulse-ai/casepulse-engine/pkg/llm"
	"github.com/casepulse-ai/casepulse-engine/pkg/logging"
	"github.com/casepulse-ai/casepulse-engine/pkg/models"
	"github.com/casepulse-ai/casepulse-engine/pkg/prompts"
	"github.com/casepulse-ai/casepulse-engine/pkg/repositories"
	sqlguard "github.com/casepulse-ai/casepulse-engine/pkg/sql"
	"github.com/casepulse-ai/casepulse-engine/pkg/timewindow"
)

// narrationPreviewRows bounds how many result rows the narrator prompt sees.
const narrationPreviewRows = 20

// ChatServiceDeps collects the collaborators of the chat orchestrator.
type ChatServiceDeps struct {
	Store     chatstate.Store
	Registry  *dimensions.Registry
	Extractor *dimensions.Extractor
	Finder    *dimensions.Finder
	Windows   *timewindow.Resolver
	Pipeline  *sqlguard.Pipeline
	Guard     *sqlguard.Guard
	Proposer  llm.Proposer
	Narrator  llm.Narrator
	Executor  datasource.QueryExecutor
	KPI       *KPIService
	Turns     repositories.ChatTurnRepository
	Logger    *zap.Logger

	Debug          bool
	DefaultDays    int
	CandidateLimit int
}

// ChatService drives one conversation turn end to end: pending-pick
// consumption, dimension extraction and locking, time-window resolution, SQL
// proposal, the rewrite pipeline, the guard, execution with a single repair
// attempt, the KPI side query, and narration.
type ChatService struct {
	store     chatstate.Store
	registry  *dimensions.Registry
	extractor *dimensions.Extractor
	finder    *dimensions.Finder
	windows   *timewindow.Resolver
	pipeline  *sqlguard.Pipeline
	guard     *sqlguard.Guard
	proposer  llm.Proposer
	narrator  llm.Narrator
	executor  datasource.QueryExecutor
	kpi       *KPIService
	turns     repositories.ChatTurnRepository
	logger    *zap.Logger

	debug          bool
	defaultDays    int
	candidateLimit int
}

// NewChatService creates the conversation orchestrator.
func NewChatService(deps ChatServiceDeps) *ChatService {
	return &ChatService{
		store:          deps.Store,
		registry:       deps.Registry,
		extractor:      deps.Extractor,
		finder:         deps.Finder,
		windows:        deps.Windows,
		pipeline:       deps.Pipeline,
		guard:          deps.Guard,
		proposer:       deps.Proposer,
		narrator:       deps.Narrator,
		executor:       deps.Executor,
		kpi:            deps.KPI,
		turns:          deps.Turns,
		logger:         deps.Logger.Named("chat"),
		debug:          deps.Debug,
		defaultDays:    deps.DefaultDays,
		candidateLimit: deps.CandidateLimit,
	}
}

var (
	clearVerbPattern  = regexp.MustCompile(`(?i)\b(clear|reset|remove|drop|forget|quitar?|limpiar?|borrar?|olvida|elimina)\b`)
	clearScopePattern = regexp.MustCompile(`(?i)\b(filters?|filtros?|everything|todo)\b`)
	bareResetPattern  = regexp.MustCompile(`(?i)^\s*(reset|start over|reiniciar|empezar de nuevo)\s*[.!]?\s*$`)
)

// HandleMessage processes one user message and returns the full response for
// the turn. Errors are returned only for infrastructure failures the caller
// cannot present to the user; everything else becomes a response with the
// matching status.
func (s *ChatService) HandleMessage(ctx context.Context, sessionID, message, lang string) (*models.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.ErrEmptyQuestion
	}

	correlationID := uuid.NewString()
	logger := s.logger.With(
		zap.String("correlation_id", correlationID),
		zap.String("session_id", sessionID))

	chatCtx, err := s.store.GetContext(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat context: %w", err)
	}
	snapshot := chatCtx.Clone()

	// An outstanding disambiguation question is consumed before anything
	// else. A reply that resolves an option locks it and replays the
	// original question; an unresolvable numeric reply re-asks; any other
	// message abandons the pick.
	pickConsumed := false
	pending, err := s.store.GetPending(ctx, sessionID)
	if err != nil {
		logger.Warn("failed to load pending pick", zap.Error(err))
		pending = nil
	}
	if pending != nil {
		opt := chatstate.ResolvePick(pending, message)
		switch {
		case opt != nil:
			chatCtx.SetLock(pending.DimKey, opt.Value, true)
			if pending.DimKey == dimensions.PersonKey {
				chatCtx.LastPerson = opt.Value
			}
			if err := s.store.ClearPending(ctx, sessionID); err != nil {
				logger.Warn("failed to clear pending pick", zap.Error(err))
			}
			if err := s.store.SetContext(ctx, sessionID, chatCtx); err != nil {
				return nil, fmt.Errorf("failed to save chat context: %w", err)
			}
			logger.Info("pick resolved",
				zap.String("dimension", pending.DimKey),
				zap.String("value", opt.Value))
			message = pending.OriginalMessage
			pickConsumed = true
		case chatstate.LooksLikePickReply(message):
			return &models.ChatResponse{
				Answer:        pending.Prompt,
				CorrelationID: correlationID,
				Status:        models.TurnStatusAmbiguous,
				Pick:          pending,
			}, nil
		default:
			if err := s.store.ClearPending(ctx, sessionID); err != nil {
				logger.Warn("failed to clear pending pick", zap.Error(err))
			}
		}
	} else if chatstate.LooksLikePickReply(message) {
		// A bare option number with no pick on file means the pick expired
		// with the session state.
		return &models.ChatResponse{
			Answer:        canned("pick_expired", lang),
			CorrelationID: correlationID,
			Status:        models.TurnStatusExpired,
		}, nil
	}

	if all, dimKey := s.clearIntent(message); all || dimKey != "" {
		return s.handleClear(ctx, logger, sessionID, correlationID, message, lang, chatCtx, all, dimKey)
	}

	// Dimension extraction and locking. Skipped right after a pick: the
	// lock is already set and re-extracting the original message would
	// just re-open the same ambiguity.
	if !pickConsumed {
		if extracted := s.extractor.Extract(message, lang); extracted != nil {
			pickResp, err := s.applyExtracted(ctx, logger, sessionID, correlationID, message, lang, chatCtx, extracted)
			if err != nil {
				return nil, err
			}
			if pickResp != nil {
				s.recordTurn(ctx, logger, &models.ChatTurn{
					SessionID:     sessionID,
					CorrelationID: correlationID,
					Question:      message,
					Lang:          langKey(lang),
					Status:        models.TurnStatusAmbiguous,
				})
				return pickResp, nil
			}
		}
	}

	window := s.windows.Resolve(message, lang, s.defaultDays)
	if !window.Matched {
		window = s.windows.CurrentMonth(lang)
	}

	filters := s.lockedFilters(chatCtx)
	hints := s.lockHints(chatCtx, lang)

	// The KPI pack is independent of the main query; it runs concurrently
	// and a failure only costs the summary block.
	kpiCh := make(chan *models.KPISummary, 1)
	go func() {
		summary, kerr := s.kpi.Summarize(ctx, window.WhereClause, filters)
		if kerr != nil {
			logger.Warn("kpi summary failed", zap.Error(kerr))
		}
		kpiCh <- summary
	}()

	proposal, err := s.proposer.ProposeSQL(ctx, prompts.ProposalContext{
		Question:     message,
		Lang:         lang,
		PeriodClause: window.WhereClause,
		LockedHints:  hints,
	})
	if err != nil {
		logger.Error("sql proposal failed", zap.Error(err))
		return s.failTurn(ctx, logger, sessionID, correlationID, message, lang, "", err), nil
	}

	run := func(raw string, fixPerson bool) (string, []map[string]any, error) {
		rewritten, rerr := s.pipeline.Run(raw, sqlguard.Input{
			Question:       message,
			PeriodClause:   window.WhereClause,
			Filters:        filters,
			FixPersonMatch: fixPerson,
		})
		if rerr != nil {
			return "", nil, rerr
		}
		final, gerr := s.guard.Validate(rewritten)
		if gerr != nil {
			return "", nil, gerr
		}
		rows, qerr := s.executor.Query(ctx, final)
		return final, rows, qerr
	}

	finalSQL, rows, execErr := run(proposal.SQL, false)
	if isRejection(execErr) {
		logger.Warn("proposed query rejected", zap.Error(execErr))
		s.recordTurn(ctx, logger, &models.ChatTurn{
			SessionID:     sessionID,
			CorrelationID: correlationID,
			Question:      message,
			Lang:          langKey(lang),
			Status:        models.TurnStatusRejected,
			ErrorDetail:   execErr.Error(),
		})
		resp := &models.ChatResponse{
			Answer:        canned("rejected", lang),
			CorrelationID: correlationID,
			Status:        models.TurnStatusRejected,
		}
		if s.debug {
			resp.Detail = execErr.Error()
		}
		return resp, nil
	}

	if execErr != nil {
		// One repair attempt: the proposer sees the failed statement and
		// the engine error, and the result goes through the full pipeline
		// and guard again.
		logger.Warn("query execution failed, attempting repair",
			zap.String("error", logging.SanitizeError(execErr)),
			zap.String("sql", logging.SanitizeQuery(finalSQL)))
		repair, perr := s.proposer.ProposeSQL(ctx, prompts.ProposalContext{
			Question:     message,
			Lang:         lang,
			PeriodClause: window.WhereClause,
			LockedHints:  hints,
			RepairError:  execErr.Error(),
			FailedSQL:    finalSQL,
		})
		if perr != nil {
			execErr = fmt.Errorf("repair proposal failed: %w", perr)
		} else if repairSQL, repairRows, rerr := run(repair.SQL, true); rerr == nil {
			finalSQL, rows, execErr = repairSQL, repairRows, nil
			logger.Info("repair attempt succeeded")
		} else {
			execErr = rerr
		}

		if execErr != nil {
			// Terminal. Locks acquired this turn are rolled back so a
			// broken turn leaves no trace on the session.
			if rbErr := s.store.SetContext(ctx, sessionID, snapshot); rbErr != nil {
				logger.Warn("failed to roll back chat context", zap.Error(rbErr))
			}
			logger.Error("turn failed after repair attempt", zap.Error(execErr))
			return s.failTurn(ctx, logger, sessionID, correlationID, message, lang, finalSQL, execErr), nil
		}
	}

	// An empty result from an exact name comparison often just means the
	// proposer guessed the spelling. Retry once with the fuzzy rewrite when
	// it actually changes the statement.
	if len(rows) == 0 {
		if fuzzySQL, fuzzyRows, rerr := run(proposal.SQL, true); rerr == nil && fuzzySQL != finalSQL && len(fuzzyRows) > 0 {
			logger.Info("empty result recovered with fuzzy name match")
			finalSQL, rows = fuzzySQL, fuzzyRows
		}
	}

	kpi := <-kpiCh
	result := buildResult(rows)
	logger.Debug("query executed",
		zap.String("sql", logging.SanitizeQuery(finalSQL)),
		zap.Int("rows", result.RowCount()))

	answer, nerr := s.narrator.Narrate(ctx, prompts.NarrationContext{
		Question:  message,
		Lang:      lang,
		Columns:   result.Columns,
		Rows:      previewRows(result, narrationPreviewRows),
		RowCount:  result.RowCount(),
		Truncated: result.RowCount() > narrationPreviewRows,
	})
	if nerr != nil {
		logger.Warn("narration failed, using fallback summary", zap.Error(nerr))
		answer = fallbackSummary(lang, result.RowCount(), window.Label)
	}

	s.recordTurn(ctx, logger, &models.ChatTurn{
		SessionID:     sessionID,
		CorrelationID: correlationID,
		Question:      message,
		Lang:          langKey(lang),
		SQLText:       finalSQL,
		RowCount:      result.RowCount(),
		Status:        models.TurnStatusOK,
	})

	resp := &models.ChatResponse{
		Answer:        answer,
		CorrelationID: correlationID,
		Status:        models.TurnStatusOK,
		Result:        result,
		KPI:           kpi,
		QuickActions:  s.quickActions(chatCtx, lang),
	}
	if s.debug {
		resp.SQL = finalSQL
	}
	return resp, nil
}

// History returns the most recent turns of a session, newest first.
func (s *ChatService) History(ctx context.Context, sessionID string, limit int) ([]*models.ChatTurn, error) {
	return s.turns.GetBySession(ctx, sessionID, limit)
}

// applyExtracted resolves an extracted dimension mention against the
// warehouse and merges the outcome into the session locks. A non-nil response
// means the turn halts on a disambiguation question.
func (s *ChatService) applyExtracted(ctx context.Context, logger *zap.Logger, sessionID, correlationID, message, lang string, chatCtx *models.ChatContext, extracted *dimensions.Extracted) (*models.ChatResponse, error) {
	resolved, err := dimensions.ResolveDimension(ctx, s.finder, s.registry, extracted, message)
	if err != nil {
		logger.Warn("dimension resolution failed", zap.Error(err))
		return nil, nil
	}
	if resolved == nil {
		return nil, nil
	}
	def := s.registry.Get(resolved.Key)
	if def == nil {
		return nil, nil
	}

	if resolved.Meta == "office_from_person" {
		// Already verified against the warehouse by the lookup itself.
		chatCtx.SetLock(resolved.Key, resolved.Value, true)
		return nil, s.store.SetContext(ctx, sessionID, chatCtx)
	}

	candidates, err := s.finder.FindCandidates(ctx, def.LookupColumn, resolved.Value, s.candidateLimit)
	if err != nil {
		logger.Warn("candidate search failed, locking unverified", zap.Error(err))
		candidates = nil
	}

	switch len(candidates) {
	case 0:
		chatCtx.SetLock(resolved.Key, resolved.Value, false)
	case 1:
		chatCtx.SetLock(resolved.Key, candidates[0].Value, true)
	default:
		pick := buildPick(def, candidates, message, lang)
		if err := s.store.SetPending(ctx, sessionID, pick); err != nil {
			return nil, fmt.Errorf("failed to save pending pick: %w", err)
		}
		if err := s.store.SetContext(ctx, sessionID, chatCtx); err != nil {
			return nil, fmt.Errorf("failed to save chat context: %w", err)
		}
		logger.Info("disambiguation required",
			zap.String("dimension", def.Key),
			zap.Int("options", len(pick.Options)))
		return &models.ChatResponse{
			Answer:        pick.Prompt,
			CorrelationID: correlationID,
			Status:        models.TurnStatusAmbiguous,
			Pick:          pick,
		}, nil
	}

	if resolved.Key == dimensions.PersonKey {
		chatCtx.LastPerson = chatCtx.Filters[resolved.Key].Value
	}
	return nil, s.store.SetContext(ctx, sessionID, chatCtx)
}

// handleClear applies a clear/reset intent: either all locks or one
// dimension's lock.
func (s *ChatService) handleClear(ctx context.Context, logger *zap.Logger, sessionID, correlationID, message, lang string, chatCtx *models.ChatContext, all bool, dimKey string) (*models.ChatResponse, error) {
	var answer string
	if all {
		chatCtx = models.NewChatContext()
		answer = canned("filters_cleared", lang)
	} else {
		chatCtx.ClearLock(dimKey)
		if dimKey == dimensions.PersonKey {
			chatCtx.LastPerson = ""
		}
		def := s.registry.Get(dimKey)
		answer = fmt.Sprintf(canned("filter_cleared", lang), def.Label(lang))
	}

	if err := s.store.SetContext(ctx, sessionID, chatCtx); err != nil {
		return nil, fmt.Errorf("failed to save chat context: %w", err)
	}
	logger.Info("filters cleared", zap.Bool("all", all), zap.String("dimension", dimKey))

	s.recordTurn(ctx, logger, &models.ChatTurn{
		SessionID:     sessionID,
		CorrelationID: correlationID,
		Question:      message,
		Lang:          langKey(lang),
		Status:        models.TurnStatusOK,
	})
	return &models.ChatResponse{
		Answer:        answer,
		CorrelationID: correlationID,
		Status:        models.TurnStatusOK,
	}, nil
}

// clearIntent detects a filter-clearing message. A clear verb plus a
// dimension keyword clears that dimension; a clear verb plus a filter scope
// word clears everything.
func (s *ChatService) clearIntent(message string) (bool, string) {
	if bareResetPattern.MatchString(message) {
		return true, ""
	}
	if !clearVerbPattern.MatchString(message) {
		return false, ""
	}
	lower := strings.ToLower(message)
	for _, def := range s.registry.List() {
		for _, keywords := range def.Keywords {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					return false, def.Key
				}
			}
		}
	}
	if clearScopePattern.MatchString(message) {
		return true, ""
	}
	return false, ""
}

// failTurn records a terminal failure and builds the friendly response.
func (s *ChatService) failTurn(ctx context.Context, logger *zap.Logger, sessionID, correlationID, message, lang, sqlText string, cause error) *models.ChatResponse {
	s.recordTurn(ctx, logger, &models.ChatTurn{
		SessionID:     sessionID,
		CorrelationID: correlationID,
		Question:      message,
		Lang:          langKey(lang),
		SQLText:       sqlText,
		Status:        models.TurnStatusFailed,
		ErrorDetail:   logging.SanitizeError(cause),
	})
	resp := &models.ChatResponse{
		Answer:        canned("failed", lang),
		CorrelationID: correlationID,
		Status:        models.TurnStatusFailed,
	}
	if s.debug {
		resp.SQL = sqlText
		resp.Detail = cause.Error()
	}
	return resp
}

func (s *ChatService) recordTurn(ctx context.Context, logger *zap.Logger, turn *models.ChatTurn) {
	if err := s.turns.Save(ctx, turn); err != nil {
		logger.Warn("failed to record chat turn", zap.Error(err))
	}
}

// lockedFilters converts the session locks into pipeline filters, in stable
// key order so the injected SQL is deterministic.
func (s *ChatService) lockedFilters(chatCtx *models.ChatContext) []sqlguard.LockedFilter {
	keys := make([]string, 0, len(chatCtx.Filters))
	for key := range chatCtx.Filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	filters := make([]sqlguard.LockedFilter, 0, len(keys))
	for _, key := range keys {
		lock := chatCtx.Filters[key]
		def := s.registry.Get(key)
		if def == nil || !lock.Locked || lock.Value == "" {
			continue
		}
		filters = append(filters, sqlguard.LockedFilter{
			Column: def.Column,
			Value:  lock.Value,
			Tokens: dimensions.Tokenize(lock.Value),
			Exact:  lock.Exact,
			Person: def.PickType == dimensions.PickPerson,
		})
	}
	return filters
}

// lockHints renders the active locks as prompt hints for the proposer.
func (s *ChatService) lockHints(chatCtx *models.ChatContext, lang string) []string {
	keys := make([]string, 0, len(chatCtx.Filters))
	for key := range chatCtx.Filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hints := make([]string, 0, len(keys))
	for _, key := range keys {
		lock := chatCtx.Filters[key]
		def := s.registry.Get(key)
		if def == nil || !lock.Locked || lock.Value == "" {
			continue
		}
		hints = append(hints, fmt.Sprintf("%s = %s", def.Label(lang), lock.Value))
	}
	return hints
}

func (s *ChatService) quickActions(chatCtx *models.ChatContext, lang string) []models.QuickAction {
	if len(chatCtx.Filters) == 0 {
		return nil
	}
	return []models.QuickAction{{
		Label:  canned("clear_filters_action", lang),
		Action: "clear_filters",
	}}
}

// buildPick renders a numbered option list for a candidate set.
func buildPick(def *dimensions.Definition, candidates []models.Candidate, message, lang string) *models.PendingPick {
	options := make([]models.PickOption, len(candidates))
	var sb strings.Builder
	fmt.Fprintf(&sb, canned("pick_prompt", lang), def.Label(lang))
	for i, c := range candidates {
		options[i] = models.PickOption{
			ID:    i + 1,
			Label: c.Value,
			Sub:   fmt.Sprintf("%d", c.Count),
			Value: c.Value,
		}
		fmt.Fprintf(&sb, "\n%d. %s", i+1, c.Value)
	}
	return &models.PendingPick{
		Type:            string(def.PickType),
		Prompt:          sb.String(),
		Options:         options,
		DimKey:          def.Key,
		OriginalMessage: message,
	}
}

// buildResult shapes raw rows into a tagged result. Column order comes from
// the first row's keys, sorted, since map iteration order is random.
func buildResult(rows []map[string]any) *models.QueryResult {
	result := &models.QueryResult{Kind: models.ResultKindSeries, Rows: rows}
	if len(rows) > 0 {
		for col := range rows[0] {
			result.Columns = append(result.Columns, col)
		}
		sort.Strings(result.Columns)
	}
	if len(rows) == 1 && len(result.Columns) == 1 {
		result.Kind = models.ResultKindKPI
	}
	return result
}

// previewRows formats the first rows for the narration prompt.
func previewRows(result *models.QueryResult, limit int) []string {
	n := len(result.Rows)
	if n > limit {
		n = limit
	}
	preview := make([]string, 0, n)
	for _, row := range result.Rows[:n] {
		parts := make([]string, 0, len(result.Columns))
		for _, col := range result.Columns {
			parts = append(parts, fmt.Sprintf("%s=%v", col, row[col]))
		}
		preview = append(preview, strings.Join(parts, ", "))
	}
	return preview
}

func fallbackSummary(lang string, rowCount int, windowLabel string) string {
	if rowCount == 0 {
		return fmt.Sprintf(canned("no_rows", lang), windowLabel)
	}
	return fmt.Sprintf(canned("row_summary", lang), rowCount, windowLabel)
}

// isRejection reports whether an error is a safety rejection rather than an
// engine failure. Rejections are never repaired.
func isRejection(err error) bool {
	if err == nil {
		return false
	}
	var rejected *sqlguard.RejectedQueryError
	var injected *sqlguard.InjectionError
	return errors.As(err, &rejected) || errors.As(err, &injected)
}
