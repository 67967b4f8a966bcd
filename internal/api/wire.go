package api

import (
	"github.com/abhisek/laesemaskine/internal/backend"
	"github.com/abhisek/laesemaskine/internal/diagnosis"
	"github.com/abhisek/laesemaskine/internal/session"
	"github.com/abhisek/laesemaskine/internal/store"
)

type healthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type wordsResponse struct {
	OK    bool           `json:"ok"`
	Level int            `json:"level"`
	Count int            `json:"count"`
	Words []session.Word `json:"words"`
}

type startResponse struct {
	OK        bool            `json:"ok"`
	SessionID string          `json:"session_id"`
	Context   session.Context `json:"context"`
}

type answerResponse struct {
	OK            bool                `json:"ok"`
	SessionWordID int64               `json:"session_word_id"`
	Correct       bool                `json:"correct"`
	Diagnostics   diagnosis.Diagnosis `json:"diagnostics"`
	ErrorType     string              `json:"error_type,omitempty"`
}

type finishRequest struct {
	EstimatedLevel int `json:"estimated_level"`
}

type finishResponse struct {
	OK      bool           `json:"ok"`
	Session session.Result `json:"session"`
}

type audioKeyRequest struct {
	AudioKey string `json:"audio_key"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type sessionsResponse struct {
	OK       bool                  `json:"ok"`
	Sessions []backend.SessionInfo `json:"sessions"`
}

type itemsResponse struct {
	OK    bool                 `json:"ok"`
	Items []backend.AnswerItem `json:"items"`
}

type overviewResponse struct {
	OK       bool                      `json:"ok"`
	Students []backend.StudentOverview `json:"students"`
}

type disputeResponse struct {
	OK        bool           `json:"ok"`
	DisputeID int64          `json:"dispute_id"`
	Dispute   *store.Dispute `json:"dispute"`
}

type disputesResponse struct {
	OK       bool            `json:"ok"`
	Disputes []store.Dispute `json:"disputes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type sendToAIRequest struct {
	ErrorType string `json:"error_type,omitempty"`
}

type sendToAIResponse struct {
	OK     bool `json:"ok"`
	Queued bool `json:"queued"`
}
