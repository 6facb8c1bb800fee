package eventsrs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/habimana/parkgate/pkg/adapter/restful/gin/serdser"
	"github.com/habimana/parkgate/pkg/core/model"
)

type listEventsReq struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// EventResp is the serialized form of one audit event. The kind is
// served as its string representation.
type EventResp struct {
	Plate     string    `json:"plate"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

func (rs *resource) DserListEventsReq(c *gin.Context) *listEventsReq {
	req := &listEventsReq{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	return req
}

// SerEvents serializes the events for the JSON response.
func SerEvents(events []model.Event) []EventResp {
	resp := make([]EventResp, 0, len(events))
	for _, e := range events {
		resp = append(resp, EventResp{
			Plate:     e.Plate,
			Kind:      e.Kind.String(),
			Timestamp: e.Timestamp,
			Message:   e.Message,
		})
	}
	return resp
}
