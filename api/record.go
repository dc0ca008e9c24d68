package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ltss/ltss-api/dataset"
	"github.com/ltss/ltss-api/schema"
)

type recordItem struct {
	ID     string               `json:"id"`
	Fields []map[string]*string `json:"fields"`
}

func (s *Server) uiFields() schema.UIFields {
	if s.description == nil {
		return nil
	}
	return s.description.UIFields
}

// lookupRecord finds a configured record by its row index
func (s *Server) lookupRecord(c *gin.Context) (schema.RawRecord, bool) {
	if len(s.records) == 0 {
		abortWithEncoding(c, http.StatusNotFound, errorNoRecords)
		return nil, false
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters, err)
		return nil, false
	}
	if id < 0 || id >= len(s.records) {
		abortWithEncoding(c, http.StatusNotFound, errorRecordNotFound)
		return nil, false
	}

	return s.records[id], true
}

func (s *Server) listRecords(c *gin.Context) {
	if len(s.records) == 0 {
		abortWithEncoding(c, http.StatusNotFound, errorNoRecords)
		return
	}

	items := make([]recordItem, 0, len(s.records))
	for i, r := range s.records {
		items = append(items, recordItem{
			ID:     strconv.Itoa(i),
			Fields: dataset.FormatRecordForFrontend(r, s.uiFields()),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"records": items,
	})
}

func (s *Server) getRecord(c *gin.Context) {
	record, ok := s.lookupRecord(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, recordItem{
		ID:     c.Param("id"),
		Fields: dataset.FormatRecordForFrontend(record, s.uiFields()),
	})
}

func (s *Server) predictRecord(c *gin.Context) {
	record, ok := s.lookupRecord(c)
	if !ok {
		return
	}

	confidence, ok := s.confidence(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.runPrediction(c, record, confidence, c.Param("id")))
}
