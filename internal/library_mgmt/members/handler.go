package members

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/members", h.CreateMember)
	r.GET("/members", h.ListMembers)
	r.GET("/members/stats", h.Stats)
	r.GET("/members/:member_id", h.GetMember)
	r.PUT("/members/:member_id", h.UpdateMember)
	r.PUT("/members/:member_id/status", h.UpdateStatus)
	r.DELETE("/members/:member_id", h.DeleteMember)
}

func (h *Handler) CreateMember(c *gin.Context) {
	var req CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateMember(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/members/"+strconv.FormatInt(res.MemberID, 10))
	c.JSON(http.StatusCreated, res)
}

// GET /members?search=&member_type=&limit=&offset=
// email= 指定時は完全一致で1件返す
func (h *Handler) ListMembers(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		res, err := h.svc.GetMemberByEmail(c.Request.Context(), email)
		if err != nil {
			c.JSON(ToHTTPStatus(err), errorFromErr(err))
			return
		}
		c.JSON(http.StatusOK, []MemberResponse{res})
		return
	}

	f := MemberFilter{
		Search:     c.Query("search"),
		MemberType: c.Query("member_type"),
		Limit:      parseIntDefault(c.Query("limit"), 50),
		Offset:     parseIntDefault(c.Query("offset"), 0),
	}
	res, err := h.svc.ListMembers(c.Request.Context(), f)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetMember(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("member_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid member_id"))
		return
	}
	res, err := h.svc.GetMember(c.Request.Context(), id)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateMember(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("member_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid member_id"))
		return
	}
	var req UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.UpdateMember(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("member_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid member_id"))
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing status"))
		return
	}
	res, err := h.svc.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteMember(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("member_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid member_id"))
		return
	}
	if err := h.svc.DeleteMember(c.Request.Context(), id); err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Stats(c *gin.Context) {
	res, err := h.svc.GetStatistics(c.Request.Context())
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = err.Error()
	}
	return errorBody(code, msg)
}
