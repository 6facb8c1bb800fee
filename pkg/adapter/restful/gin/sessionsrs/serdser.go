package sessionsrs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/habimana/parkgate/pkg/adapter/restful/gin/serdser"
	"github.com/habimana/parkgate/pkg/core/model"
)

type listSessionsReq struct {
	Active bool `form:"active" binding:"omitempty"`
	Limit  int  `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// SessionResp is the serialized form of one parking session.
type SessionResp struct {
	ID        uuid.UUID  `json:"id"`
	Plate     string     `json:"plate"`
	Paid      bool       `json:"paid"`
	AmountDue *int64     `json:"amount_due"`
	EntryTime time.Time  `json:"entry_time"`
	ExitTime  *time.Time `json:"exit_time"`
	Exited    bool       `json:"exited"`
}

func (rs *resource) DserListSessionsReq(c *gin.Context) *listSessionsReq {
	req := &listSessionsReq{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	return req
}

// SerSessions serializes the sessions for the JSON response.
func SerSessions(sessions []model.ParkingSession) []SessionResp {
	resp := make([]SessionResp, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, SessionResp{
			ID:        s.ID,
			Plate:     s.Plate.String(),
			Paid:      s.Paid,
			AmountDue: s.AmountDue,
			EntryTime: s.EntryTime,
			ExitTime:  s.ExitTime,
			Exited:    s.Exited,
		})
	}
	return resp
}
