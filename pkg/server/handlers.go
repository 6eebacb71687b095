// Package server exposes the checkpoint listing and the nodes over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/classifier"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/config"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/logger"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/node"
)

const (
	msgMissingType = "缺少模型类型参数"
	msgInternal    = "服务器内部错误"
)

type Handlers struct {
	cache *classifier.Cache
	nodes *node.Registry
	log   *logrus.Entry
}

func NewHandlers(cache *classifier.Cache, nodes *node.Registry) *Handlers {
	return &Handlers{
		cache: cache,
		nodes: nodes,
		log:   logger.GetLogger("server"),
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type checkpointList struct {
	Names []string          `json:"names"`
	Paths map[string]string `json:"paths"`
}

type byTypeData struct {
	Checkpoints checkpointList `json:"checkpoints"`
	Total       int            `json:"total"`
}

type allData struct {
	Types       []string                  `json:"types"`
	Checkpoints map[string]checkpointList `json:"checkpoints"`
	Total       int                       `json:"total"`
}

type byTypeRequest struct {
	Type string `json:"type"`
}

func newCheckpointList(models classifier.ModelList) checkpointList {
	return checkpointList{Names: models.Names(), Paths: models.Paths()}
}

func (h *Handlers) fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Success: false, Error: msg})
}

// failClassification reports pattern table errors verbatim and anything else as
// an internal error.
func (h *Handlers) failClassification(c *gin.Context, err error) {
	h.log.WithError(err).Error("Failed classifying checkpoints")

	if errors.Is(err, config.ErrModelTypes) {
		h.fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.fail(c, http.StatusInternalServerError, fmt.Sprintf("%s: %v", msgInternal, err))
}

// HandleByType lists the checkpoints of one category.
//
// GET reads the category from ?type=, POST from the JSON body {"type": "..."}.
func (h *Handlers) HandleByType(c *gin.Context) {
	var modelType string

	switch c.Request.Method {
	case http.MethodPost:
		var req byTypeRequest
		if err := decodeObject(c.Request.Body, &req); err != nil {
			h.log.WithError(err).Warn("Failed decoding request body")
			h.fail(c, http.StatusInternalServerError, fmt.Sprintf("%s: %v", msgInternal, err))
			return
		}
		modelType = req.Type
	default:
		modelType = c.Query("type")
	}

	if modelType == "" {
		h.fail(c, http.StatusBadRequest, msgMissingType)
		return
	}

	models, err := h.cache.Classified()
	if err != nil {
		h.failClassification(c, err)
		return
	}

	list := models.Models(modelType)
	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Data: byTypeData{
			Checkpoints: newCheckpointList(list),
			Total:       len(list),
		},
	})
}

func (h *Handlers) HandleAll(c *gin.Context) {
	models, err := h.cache.Classified()
	if err != nil {
		h.failClassification(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse{Success: true, Data: newAllData(models)})
}

// HandleRefresh drops the cache and classifies again.
func (h *Handlers) HandleRefresh(c *gin.Context) {
	h.cache.Invalidate()

	models, err := h.cache.Classified()
	if err != nil {
		h.failClassification(c, err)
		return
	}

	h.log.Infof("Refreshed checkpoint cache: %d checkpoints", models.Total())
	c.JSON(http.StatusOK, successResponse{Success: true, Data: newAllData(models)})
}

func newAllData(models *classifier.Classified) allData {
	data := allData{
		Types:       models.Types(),
		Checkpoints: make(map[string]checkpointList),
		Total:       models.Total(),
	}
	for _, t := range data.Types {
		data.Checkpoints[t] = newCheckpointList(models.Models(t))
	}
	return data
}

// HandleObjectInfo describes every registered node, keyed by id.
func (h *Handlers) HandleObjectInfo(c *gin.Context) {
	out := make(map[string]node.Descriptor)
	for _, id := range h.nodes.IDs() {
		if d, ok := h.nodes.Describe(id); ok {
			out[id] = d
		}
	}
	c.JSON(http.StatusOK, out)
}

type invokeResponse struct {
	Success bool  `json:"success"`
	Outputs []any `json:"outputs"`
}

func (h *Handlers) HandleInvoke(c *gin.Context) {
	id := c.Param("id")

	args := node.Args{}
	if err := decodeBody(c.Request.Body, &args); err != nil {
		h.fail(c, http.StatusBadRequest, fmt.Sprintf("invalid arguments: %v", err))
		return
	}

	outputs, err := h.nodes.Invoke(c.Request.Context(), id, args)
	if err != nil {
		var ve *node.ValueError
		switch {
		case errors.Is(err, node.ErrUnknownNode):
			h.fail(c, http.StatusNotFound, err.Error())
		case errors.As(err, &ve):
			h.fail(c, http.StatusBadRequest, ve.Error())
		default:
			h.log.WithError(err).Errorf("Failed invoking node %q", id)
			h.fail(c, http.StatusInternalServerError, fmt.Sprintf("%s: %v", msgInternal, err))
		}
		return
	}

	c.JSON(http.StatusOK, invokeResponse{Success: true, Outputs: outputs})
}

// decodeBody decodes a JSON object keeping numbers as json.Number. An empty
// body leaves v untouched.
func decodeBody(r io.Reader, v any) error {
	if r == nil {
		return nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}

// decodeObject is decodeBody for endpoints that require a JSON object body.
func decodeObject(r io.Reader, v any) error {
	if r == nil {
		return errors.New("decode body: empty body")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return errors.New("decode body: empty body")
	case trimmed[0] != '{':
		if json.Valid(trimmed) {
			return errors.New("decode body: expected a JSON object")
		}
	}

	return decodeBody(bytes.NewReader(trimmed), v)
}

// recovery turns panics into the JSON error envelope.
func recovery(log *logrus.Entry) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Errorf("Recovered from panic: %v", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Success: false,
			Error:   fmt.Sprintf("%s: %v", msgInternal, recovered),
		})
	})
}
