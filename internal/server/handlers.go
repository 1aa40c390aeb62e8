package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rankfuse/rankfuse/fusion"
	"github.com/rankfuse/rankfuse/fusion/explain"
	"github.com/rankfuse/rankfuse/fusion/validate"
	"github.com/rankfuse/rankfuse/internal/bus"
	"github.com/rankfuse/rankfuse/internal/pkg/errors"
)

// fuseOptions are the per-request overrides over the server defaults.
// Absent fields fall back to configuration.
type fuseOptions struct {
	K             *int      `json:"k,omitempty"`
	Weights       []float64 `json:"weights,omitempty"`
	Normalize     *bool     `json:"normalize,omitempty"`
	ClipMin       *float64  `json:"clip_min,omitempty"`
	ClipMax       *float64  `json:"clip_max,omitempty"`
	Normalization string    `json:"normalization,omitempty"`
	TopK          *int      `json:"top_k,omitempty"`
}

// fuseRequest is the body of POST /v1/fuse.
type fuseRequest struct {
	Method   string                    `json:"method,omitempty"`
	Lists    [][]fusion.Scored[string] `json:"lists"`
	Options  *fuseOptions              `json:"options,omitempty"`
	Validate bool                      `json:"validate,omitempty"`
}

// fuseResponse is the body of a successful fusion.
type fuseResponse struct {
	Method     string                  `json:"method"`
	Results    []fusion.Scored[string] `json:"results"`
	Count      int                     `json:"count"`
	Validation *validate.Result        `json:"validation,omitempty"`
}

// explainRequest is the body of POST /v1/fuse/explain.
type explainRequest struct {
	Method             string                    `json:"method,omitempty"`
	Lists              [][]fusion.Scored[string] `json:"lists"`
	Retrievers         []explain.RetrieverID     `json:"retrievers"`
	Options            *fuseOptions              `json:"options,omitempty"`
	IncludeConsensus   bool                      `json:"include_consensus,omitempty"`
	IncludeAttribution bool                      `json:"include_attribution,omitempty"`
	AttributionK       int                       `json:"attribution_k,omitempty"`
}

// explainResponse is the body of a successful explained fusion.
type explainResponse struct {
	Method      string                                         `json:"method"`
	Results     []explain.FusedResult[string]                  `json:"results"`
	Count       int                                            `json:"count"`
	Consensus   *explain.ConsensusReport[string]               `json:"consensus,omitempty"`
	Attribution map[explain.RetrieverID]explain.RetrieverStats `json:"attribution,omitempty"`
}

// batchRequest is the body of POST /v1/fuse/batch.
type batchRequest struct {
	Jobs []fuseRequest `json:"jobs"`
}

// batchEntry is one job's outcome; exactly one of Results or Error is set.
type batchEntry struct {
	Method  string                  `json:"method,omitempty"`
	Results []fusion.Scored[string] `json:"results,omitempty"`
	Count   int                     `json:"count"`
	Error   *errors.ErrorResponse   `json:"error,omitempty"`
}

// batchResponse preserves job order.
type batchResponse struct {
	Entries []batchEntry `json:"entries"`
}

// validateRequest is the body of POST /v1/validate.
type validateRequest struct {
	Results          []fusion.Scored[string] `json:"results"`
	CheckNonNegative bool                    `json:"check_non_negative,omitempty"`
	MaxResults       *int                    `json:"max_results,omitempty"`
}

// handleFuse fuses N ranked lists and returns the fused ranking.
func (s *Server) handleFuse(w http.ResponseWriter, r *http.Request) {
	var req fuseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.InvalidRequestError("invalid JSON body"))
		return
	}

	method, opts, appErr := s.resolveOptions(req.Method, req.Options)
	if appErr != nil {
		errors.WriteError(w, appErr)
		return
	}

	if appErr := s.checkListLimits(req.Lists); appErr != nil {
		s.metrics.ObserveFusion(string(method), "error", 0, 0, 0)
		errors.WriteError(w, appErr)
		return
	}

	start := time.Now()
	results, err := fusion.Fuse(req.Lists, method, opts)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveFusion(string(method), "error", 0, 0, 0)
		errors.WriteError(w, mapFusionError(err))
		return
	}

	inputSize := 0
	for _, list := range req.Lists {
		inputSize += len(list)
	}
	s.metrics.ObserveFusion(string(method), "ok", elapsed.Seconds(), inputSize, len(results))
	s.publishFusionCompleted(r, method, len(req.Lists), inputSize, len(results), elapsed)
	s.log.WithMethod(string(method)).Debug("Fusion completed",
		"lists", len(req.Lists),
		"results", len(results),
		"duration", elapsed,
	)

	resp := fuseResponse{
		Method:  string(method),
		Results: results,
		Count:   len(results),
	}

	if req.Validate {
		res := validate.Check(results, false, -1)
		resp.Validation = &res
		if !res.Valid {
			s.metrics.ValidationFailures.Inc()
			s.publish(r, bus.TopicValidationFailed, res)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleFuseExplain fuses with full per-source attribution. Only the
// methods with an explained form are accepted.
func (s *Server) handleFuseExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.InvalidRequestError("invalid JSON body"))
		return
	}

	method, opts, appErr := s.resolveOptions(req.Method, req.Options)
	if appErr != nil {
		errors.WriteError(w, appErr)
		return
	}

	if appErr := s.checkListLimits(req.Lists); appErr != nil {
		errors.WriteError(w, appErr)
		return
	}

	start := time.Now()
	results, err := s.explainFuse(method, req.Lists, req.Retrievers, opts)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.ObserveFusion(string(method), "error", 0, 0, 0)
		errors.WriteError(w, mapFusionError(err))
		return
	}

	inputSize := 0
	for _, list := range req.Lists {
		inputSize += len(list)
	}
	s.metrics.ObserveFusion(string(method), "ok", elapsed.Seconds(), inputSize, len(results))
	s.publishFusionCompleted(r, method, len(req.Lists), inputSize, len(results), elapsed)

	resp := explainResponse{
		Method:  string(method),
		Results: results,
		Count:   len(results),
	}

	if req.IncludeConsensus {
		report := explain.AnalyzeConsensus(results)
		resp.Consensus = &report
	}
	if req.IncludeAttribution {
		k := req.AttributionK
		if k <= 0 {
			k = len(results)
		}
		resp.Attribution = explain.AttributeTopK(results, k)
	}

	writeJSON(w, http.StatusOK, resp)
}

// explainFuse dispatches to the explained entry points.
func (s *Server) explainFuse(method fusion.Method, lists [][]fusion.Scored[string], retrievers []explain.RetrieverID, opts fusion.Options) ([]explain.FusedResult[string], error) {
	switch method {
	case fusion.MethodRRF:
		return explain.RRFExplain(lists, retrievers, fusion.RRFConfig{K: opts.K, TopK: opts.TopK})
	case fusion.MethodCombSUM:
		return explain.CombSUMExplain(lists, retrievers, fusion.FusionConfig{TopK: opts.TopK})
	case fusion.MethodCombMNZ:
		return explain.CombMNZExplain(lists, retrievers, fusion.FusionConfig{TopK: opts.TopK})
	case fusion.MethodDBSF:
		return explain.DBSFExplain(lists, retrievers, fusion.FusionConfig{TopK: opts.TopK})
	default:
		return nil, fmt.Errorf("%w: no explained form for %s", fusion.ErrUnknownMethod, method)
	}
}

// handleFuseBatch runs independent fusion jobs concurrently, preserving
// job order in the response. One failed job does not fail the batch.
func (s *Server) handleFuseBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.InvalidRequestError("invalid JSON body"))
		return
	}

	if len(req.Jobs) == 0 {
		errors.WriteError(w, errors.InvalidRequestError("batch must contain at least one job"))
		return
	}
	if len(req.Jobs) > s.appCfg.Fusion.MaxBatch {
		errors.WriteError(w, errors.ValidationError(
			fmt.Sprintf("batch exceeds maximum of %d jobs", s.appCfg.Fusion.MaxBatch)))
		return
	}

	s.metrics.ObserveBatch(len(req.Jobs))

	entries := make([]batchEntry, len(req.Jobs))

	g, _ := errgroup.WithContext(r.Context())
	g.SetLimit(s.appCfg.Fusion.BatchWorkers)

	for i, job := range req.Jobs {
		g.Go(func() error {
			entries[i] = s.runBatchJob(job)
			return nil
		})
	}
	g.Wait()

	for i := range entries {
		if entries[i].Error == nil {
			s.metrics.ObserveFusion(entries[i].Method, "ok", 0, 0, entries[i].Count)
		}
	}

	s.publish(r, bus.TopicBatchCompleted, map[string]int{"jobs": len(req.Jobs)})

	writeJSON(w, http.StatusOK, batchResponse{Entries: entries})
}

// runBatchJob executes one job of a batch.
func (s *Server) runBatchJob(job fuseRequest) batchEntry {
	method, opts, appErr := s.resolveOptions(job.Method, job.Options)
	if appErr == nil {
		appErr = s.checkListLimits(job.Lists)
	}
	if appErr != nil {
		return batchEntry{Error: &errors.ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Message: appErr.Message,
		}}
	}

	results, err := fusion.Fuse(job.Lists, method, opts)
	if err != nil {
		appErr := mapFusionError(err)
		return batchEntry{Method: string(method), Error: &errors.ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Message: appErr.Message,
		}}
	}

	return batchEntry{
		Method:  string(method),
		Results: results,
		Count:   len(results),
	}
}

// handleValidate runs the post-hoc checks over a submitted result list.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, errors.InvalidRequestError("invalid JSON body"))
		return
	}

	maxResults := -1
	if req.MaxResults != nil {
		maxResults = *req.MaxResults
	}

	res := validate.Check(req.Results, req.CheckNonNegative, maxResults)
	if !res.Valid {
		s.metrics.ValidationFailures.Inc()
	}

	writeJSON(w, http.StatusOK, res)
}

// handleMethods lists the available fusion methods.
func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	methods := fusion.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	writeJSON(w, http.StatusOK, map[string][]string{"methods": names})
}

// handleVersion reports the server version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.cfg.Version})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveOptions merges request overrides over the configured defaults.
func (s *Server) resolveOptions(methodName string, o *fuseOptions) (fusion.Method, fusion.Options, *errors.AppError) {
	if methodName == "" {
		methodName = s.appCfg.Fusion.DefaultMethod
	}
	method, err := fusion.ParseMethod(methodName)
	if err != nil {
		return "", fusion.Options{}, errors.New(errors.CodeUnknownMethod,
			fmt.Sprintf("unknown fusion method: %s", methodName))
	}

	opts := fusion.DefaultOptions(method)
	if method != fusion.MethodISR {
		opts.K = s.appCfg.Fusion.DefaultK
	}
	opts.ClipMin = s.appCfg.Fusion.ClipMin
	opts.ClipMax = s.appCfg.Fusion.ClipMax
	opts.TopK = topKOrUnlimited(s.appCfg.Fusion.DefaultTopK)

	if norm, err := fusion.ParseNormalization(s.appCfg.Fusion.DefaultNormalization); err == nil {
		opts.Normalization = norm
	}

	if o == nil {
		return method, opts, nil
	}

	if o.K != nil {
		opts.K = *o.K
	}
	if o.Weights != nil {
		opts.Weights = o.Weights
	}
	if o.Normalize != nil {
		opts.Normalize = *o.Normalize
	}
	if o.ClipMin != nil {
		opts.ClipMin = *o.ClipMin
	}
	if o.ClipMax != nil {
		opts.ClipMax = *o.ClipMax
	}
	if o.Normalization != "" {
		norm, err := fusion.ParseNormalization(o.Normalization)
		if err != nil {
			return "", fusion.Options{}, errors.New(errors.CodeUnknownNorm,
				fmt.Sprintf("unknown normalization: %s", o.Normalization))
		}
		opts.Normalization = norm
	}
	if o.TopK != nil {
		opts.TopK = topKOrUnlimited(*o.TopK)
	}

	return method, opts, nil
}

// topKOrUnlimited maps the API convention (0 or negative = unlimited) to
// the engine's.
func topKOrUnlimited(topK int) int {
	if topK <= 0 {
		return fusion.NoLimit
	}
	return topK
}

// checkListLimits enforces the configured input size bounds.
func (s *Server) checkListLimits(lists [][]fusion.Scored[string]) *errors.AppError {
	if len(lists) == 0 {
		return errors.InvalidRequestError("lists must not be empty")
	}
	if len(lists) > s.appCfg.Fusion.MaxLists {
		return errors.ValidationError(
			fmt.Sprintf("too many input lists: %d > %d", len(lists), s.appCfg.Fusion.MaxLists))
	}
	for i, list := range lists {
		if len(list) > s.appCfg.Fusion.MaxListSize {
			return errors.ValidationError(
				fmt.Sprintf("list %d exceeds maximum size of %d", i, s.appCfg.Fusion.MaxListSize))
		}
	}
	return nil
}

// mapFusionError translates engine sentinels into API errors.
func mapFusionError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, fusion.ErrInvalidK):
		return errors.New(errors.CodeInvalidK, "k must be at least 1")
	case stderrors.Is(err, fusion.ErrZeroWeights):
		return errors.New(errors.CodeZeroWeights, "weights must not sum to zero")
	case stderrors.Is(err, fusion.ErrWeightCount):
		return errors.New(errors.CodeWeightCount, "weights must match the number of lists")
	case stderrors.Is(err, fusion.ErrUnknownMethod):
		return errors.New(errors.CodeUnknownMethod, err.Error())
	case stderrors.Is(err, fusion.ErrUnknownNormalization):
		return errors.New(errors.CodeUnknownNorm, err.Error())
	case stderrors.Is(err, explain.ErrRetrieverCount):
		return errors.New(errors.CodeRetrieverCount, "retrievers must match the number of lists")
	default:
		return errors.InternalError("fusion failed", err)
	}
}

// publishFusionCompleted emits the completion event for one fusion.
func (s *Server) publishFusionCompleted(r *http.Request, method fusion.Method, lists, inputSize, outputSize int, elapsed time.Duration) {
	s.publish(r, bus.TopicFusionCompleted, bus.FusionCompletedPayload{
		Method:     string(method),
		Lists:      lists,
		InputSize:  inputSize,
		OutputSize: outputSize,
		DurationMS: float64(elapsed.Microseconds()) / 1000,
	})
}

// publish emits an event, recording the outcome. Publish failures are
// logged, never surfaced to the client.
func (s *Server) publish(r *http.Request, topic string, payload any) {
	event := bus.Event{
		ID:        GenerateRequestID(),
		Type:      topic,
		Source:    "rankfuse-server",
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
	err := s.bus.Publish(r.Context(), topic, event)
	s.metrics.ObservePublish(topic, err)
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
