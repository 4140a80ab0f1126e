package chat

import (
	"net/http"

	midsec "ChatHub/middleware/security"
	errs "ChatHub/tools/errs"

	"github.com/gin-gonic/gin"
)

// HandleListRooms returns the viewer's rooms, normalized the same way
// the socket snapshots are, so a fresh client can render before its
// socket is up.
func (s *Server) HandleListRooms(c *gin.Context) {
	userID := midsec.UserID(c)
	ctx := c.Request.Context()

	roomIDs, err := s.store.RoomIDsForUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.CodeOf(err))
		return
	}

	snaps := make([]any, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		room, err := s.store.GetRoom(ctx, roomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errs.CodeOf(err))
			return
		}
		snap, err := s.roomSnapshot(ctx, room, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errs.CodeOf(err))
			return
		}
		snaps = append(snaps, snap)
	}
	c.JSON(http.StatusOK, gin.H{"rooms": snaps})
}
