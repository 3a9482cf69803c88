package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aescanero/genflow/internal/application/graph"
	"github.com/aescanero/genflow/internal/application/nodes"
	"github.com/aescanero/genflow/internal/application/orchestrator"
	"github.com/aescanero/genflow/internal/application/settings"
	"github.com/aescanero/genflow/internal/application/workers"
	"github.com/aescanero/genflow/pkg/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Palette placement: each new node lands a little below and right of the last
const (
	paletteOrigin = 100
	paletteStep   = 20
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RunResponse is returned when a run has been accepted
type RunResponse struct {
	NodeID string          `json:"node_id"`
	State  domain.RunState `json:"state"`
}

// PaletteRequest optionally places a palette node explicitly
type PaletteRequest struct {
	Position *domain.Position `json:"position"`
}

// APIKeyRequest carries a key to validate and store
type APIKeyRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

// APIKeyResponse reports the validation outcome
type APIKeyResponse struct {
	Valid  bool            `json:"valid"`
	Status settings.Status `json:"status"`
}

// errorMapping ties a sentinel error to its HTTP status and code
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrNodeNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrNotTriggerable, http.StatusUnprocessableEntity, "NOT_TRIGGERABLE"},
	{domain.ErrAlreadyRunning, http.StatusConflict, "ALREADY_RUNNING"},
	{orchestrator.ErrNoRunInFlight, http.StatusConflict, "NO_RUN_IN_FLIGHT"},
	{domain.ErrDuplicateID, http.StatusConflict, "DUPLICATE_ID"},
	{domain.ErrDanglingEndpoint, http.StatusUnprocessableEntity, "DANGLING_ENDPOINT"},
	{domain.ErrKindMismatch, http.StatusUnprocessableEntity, "KIND_MISMATCH"},
	{settings.ErrEmptyKey, http.StatusBadRequest, "INVALID_REQUEST"},
	{workers.ErrPoolStopped, http.StatusServiceUnavailable, "UNAVAILABLE"},
}

// respondError writes err, using fallback for errors with no sentinel mapping
func (s *Server) respondError(c *gin.Context, err error, fallback int, fallbackCode string) {
	status, code := fallback, fallbackCode
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			status, code = m.status, m.code
			break
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}

// handleHealth reports worker pool health
func (s *Server) handleHealth(c *gin.Context) {
	status := s.health.GetStatus()
	code := http.StatusOK
	state := "healthy"
	if !status.Healthy {
		code = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(code, gin.H{
		"status":    state,
		"timestamp": status.Timestamp.Format(time.RFC3339),
		"checks": gin.H{
			"workers": status,
		},
	})
}

// handleGetGraph returns a consistent snapshot of nodes and edges
func (s *Server) handleGetGraph(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

// handleImportGraph validates and replaces the whole graph
func (s *Server) handleImportGraph(c *gin.Context) {
	var snap graph.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.orchestrator.Import(&snap); err != nil {
		s.respondError(c, err, http.StatusUnprocessableEntity, "IMPORT_FAILED")
		return
	}

	c.JSON(http.StatusOK, s.store.Snapshot())
}

// handleAddNode inserts a node; a missing id is generated
func (s *Server) handleAddNode(c *gin.Context) {
	var node domain.Node
	if err := c.ShouldBindJSON(&node); err != nil {
		s.badRequest(c, err)
		return
	}
	if node.ID == "" {
		node.ID = uuid.New().String()
	}

	if err := s.store.AddNode(node); err != nil {
		s.respondError(c, err, http.StatusBadRequest, "INVALID_NODE")
		return
	}

	stored, _ := s.store.Node(node.ID)
	c.JSON(http.StatusCreated, stored)
}

// handleGetNode returns one node
func (s *Server) handleGetNode(c *gin.Context) {
	node, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, node)
}

// handlePatchNode shallow-merges the body into the node's payload
func (s *Server) handlePatchNode(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.lookup(c); !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		s.badRequest(c, err)
		return
	}
	patch, err := domain.DecodePatch(raw)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.store.PatchNodeData(id, patch); err != nil {
		s.respondError(c, err, http.StatusBadRequest, "INVALID_PATCH")
		return
	}

	node, ok := s.store.Node(id)
	if !ok {
		// Deleted between patch and read.
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, node)
}

// handleDeleteNode removes a node and its edges; absent ids are ignored
func (s *Server) handleDeleteNode(c *gin.Context) {
	s.store.DeleteNode(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// handleNodeChanges applies a batch of canvas node changes
func (s *Server) handleNodeChanges(c *gin.Context) {
	var changes []graph.NodeChange
	if err := c.ShouldBindJSON(&changes); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.store.ApplyNodeChanges(changes); err != nil {
		s.respondError(c, err, http.StatusBadRequest, "INVALID_CHANGE")
		return
	}

	c.JSON(http.StatusOK, s.store.Snapshot())
}

// handleGetInputs returns the values reaching a node through its incoming edges
func (s *Server) handleGetInputs(c *gin.Context) {
	if _, ok := s.lookup(c); !ok {
		return
	}
	inputs := s.store.ConnectedInputs(c.Param("id"))
	if inputs == nil {
		inputs = []domain.Input{}
	}
	c.JSON(http.StatusOK, gin.H{"inputs": inputs})
}

// handleGetView returns what a display node renders
func (s *Server) handleGetView(c *gin.Context) {
	node, ok := s.lookup(c)
	if !ok {
		return
	}

	data, isDisplay := node.Data.(domain.DisplayData)
	if !isDisplay {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_A_DISPLAY",
				Message: "only display nodes have a view",
			},
		})
		return
	}

	c.JSON(http.StatusOK, nodes.Render(data))
}

// handleGetState returns the run state of a node
func (s *Server) handleGetState(c *gin.Context) {
	node, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, RunResponse{
		NodeID: node.ID,
		State:  s.orchestrator.Lifecycle().State(node.ID),
	})
}

// handleRunNode starts a run. With ?wait=true the response carries the result.
func (s *Server) handleRunNode(c *gin.Context) {
	id := c.Param("id")

	results, err := s.orchestrator.Run(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err, http.StatusInternalServerError, "RUN_FAILED")
		return
	}

	if c.Query("wait") != "true" {
		c.JSON(http.StatusAccepted, RunResponse{NodeID: id, State: domain.RunStateRunning})
		return
	}

	select {
	case res := <-results:
		c.JSON(http.StatusOK, res)
	case <-c.Request.Context().Done():
		// Client went away; the run continues.
	}
}

// handleCancelRun aborts the in-flight run of a node
func (s *Server) handleCancelRun(c *gin.Context) {
	id := c.Param("id")
	if err := s.orchestrator.Cancel(id); err != nil {
		s.respondError(c, err, http.StatusInternalServerError, "CANCELLATION_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"node_id":      id,
		"status":       "cancelled",
		"cancelled_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleAddEdge connects two nodes. Reconnecting returns the existing edge.
func (s *Server) handleAddEdge(c *gin.Context) {
	var conn domain.Connection
	if err := c.ShouldBindJSON(&conn); err != nil {
		s.badRequest(c, err)
		return
	}
	if conn.Source == "" || conn.Target == "" {
		s.badRequest(c, errors.New("source and target are required"))
		return
	}

	edge, err := s.store.AddEdge(conn)
	if err != nil {
		s.respondError(c, err, http.StatusBadRequest, "INVALID_EDGE")
		return
	}

	c.JSON(http.StatusCreated, edge)
}

// handleDeleteEdge removes one edge; absent ids are ignored
func (s *Server) handleDeleteEdge(c *gin.Context) {
	s.store.DeleteEdge(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// handleEdgeChanges applies a batch of canvas edge changes
func (s *Server) handleEdgeChanges(c *gin.Context) {
	var changes []graph.EdgeChange
	if err := c.ShouldBindJSON(&changes); err != nil {
		s.badRequest(c, err)
		return
	}

	if err := s.store.ApplyEdgeChanges(changes); err != nil {
		s.respondError(c, err, http.StatusBadRequest, "INVALID_CHANGE")
		return
	}

	c.JSON(http.StatusOK, s.store.Snapshot())
}

// handlePalette creates a node of the given kind with its default payload
func (s *Server) handlePalette(c *gin.Context) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		s.badRequest(c, err)
		return
	}

	var req PaletteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.badRequest(c, err)
			return
		}
	}

	var pos domain.Position
	if req.Position != nil {
		pos = *req.Position
	} else {
		offset := float64(paletteOrigin + paletteStep*len(s.store.Nodes()))
		pos = domain.Position{X: offset, Y: offset}
	}

	payload, err := domain.DefaultPayload(kind)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	node, err := domain.NewNode(uuid.New().String(), kind, pos, payload)
	if err != nil {
		s.respondError(c, err, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}
	if err := s.store.AddNode(node); err != nil {
		s.respondError(c, err, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	c.JSON(http.StatusCreated, node)
}

// handleListModels returns the model catalogue, optionally for one category
func (s *Server) handleListModels(c *gin.Context) {
	category := c.Param("category")
	if category == "" {
		c.JSON(http.StatusOK, gin.H{
			string(domain.CategoryText):  domain.TextModels,
			string(domain.CategoryImage): domain.ImageModels,
			string(domain.CategoryVideo): domain.VideoModels,
		})
		return
	}

	models := domain.ModelsByCategory(domain.ModelCategory(category))
	if models == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "unknown model category: " + category,
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

// handleGetSettings reports the API key state
func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Status())
}

// handleSetAPIKey validates a key and stores it when accepted
func (s *Server) handleSetAPIKey(c *gin.Context) {
	var req APIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	valid, err := s.settings.ValidateAndStore(c.Request.Context(), req.APIKey)
	if err != nil {
		s.respondError(c, err, http.StatusInternalServerError, "SETTINGS_FAILED")
		return
	}

	status := http.StatusOK
	if !valid {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, APIKeyResponse{Valid: valid, Status: s.settings.Status()})
}

// handleClearAPIKey forgets the stored key
func (s *Server) handleClearAPIKey(c *gin.Context) {
	if err := s.settings.Clear(c.Request.Context()); err != nil {
		s.respondError(c, err, http.StatusInternalServerError, "SETTINGS_FAILED")
		return
	}
	c.Status(http.StatusNoContent)
}

// lookup loads the node named by the :id param or writes a 404
func (s *Server) lookup(c *gin.Context) (domain.Node, bool) {
	id := c.Param("id")
	node, ok := s.store.Node(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "node not found: " + id,
			},
		})
		return domain.Node{}, false
	}
	return node, true
}
