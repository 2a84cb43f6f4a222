package api

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"adinsight/adapters/summaryfile"
	"adinsight/domain/hypothesis"
	"adinsight/internal/errors"

	"github.com/gin-gonic/gin"
)

// Response headers set on accepted batches
const (
	HeaderBatchID           = "X-Batch-ID"
	HeaderVocabularyVersion = "X-Vocabulary-Version"
	HeaderGenerator         = "X-Generator"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) vocabulary(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Vocabulary().Document())
}

func (s *Server) llmUsage(c *gin.Context) {
	u := s.service.Usage()
	if u == nil {
		c.JSON(http.StatusOK, gin.H{"models": []interface{}{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": u.Snapshot()})
}

// generateHypotheses answers with the bare hypothesis array
func (s *Server) generateHypotheses(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	in, err := summaryfile.DecodeJSON(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed summary document", "detail": err.Error()})
		return
	}

	res, err := s.service.Generate(c.Request.Context(), in)
	if err != nil {
		s.writeError(c, err)
		return
	}

	raw, err := res.Batch.MarshalJSON()
	if err != nil {
		s.writeError(c, errors.Wrap(err, "failed to encode batch"))
		return
	}
	c.Header(HeaderBatchID, res.Batch.ID().String())
	c.Header(HeaderVocabularyVersion, res.Batch.VocabularyVersion())
	c.Header(HeaderGenerator, res.Audit.GeneratorType)
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

func (s *Server) validateHypotheses(c *gin.Context) {
	body, ok := readBody(c)
	if !ok {
		return
	}

	hs, err := s.service.ValidateDocument(body)
	if err != nil {
		var ce *hypothesis.ContractError
		if stderrors.As(err, &ce) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "violations": ce.Violations})
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "count": len(hs)})
}

func readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body exceeds " + strconv.Itoa(maxBodyBytes) + " bytes"})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return nil, false
	}
	return body, true
}

// writeError maps application error codes to HTTP statuses
func (s *Server) writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	resp := gin.H{"error": err.Error(), "code": code}

	status := http.StatusInternalServerError
	switch code {
	case errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeInputContractViolation:
		status = http.StatusUnprocessableEntity
		resp["violations"] = inputViolations(err)
	case errors.CodeOutputContractViolation:
		var ce *hypothesis.ContractError
		if stderrors.As(err, &ce) {
			resp["violations"] = ce.Violations
		}
	case errors.CodeExternalService:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, resp)
}

// inputViolations splits a joined input-contract error into its messages
func inputViolations(err error) []string {
	var cause error = err
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && appErr.Cause != nil {
		cause = appErr.Cause
	}
	if joined, ok := cause.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		out := make([]string, 0, len(errs))
		for _, e := range errs {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{cause.Error()}
}
