package circulation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 貸出・返却・延長
	r.POST("/loans", h.IssueBook)
	r.POST("/returns", h.ReturnBook)
	r.POST("/loans/:transaction_id/renew", h.RenewBook)

	// 参照系
	r.GET("/loans", h.ListLoans)
	r.GET("/loans/overdue", h.ListOverdue)
	r.GET("/loans/history", h.ListHistory)
	r.GET("/loans/stats", h.Stats)
	r.GET("/loans/:transaction_id", h.GetLoan)
	r.GET("/members/:member_id/loans", h.ListMemberLoans)
	r.GET("/members/:member_id/summary", h.MemberSummary)
	r.GET("/books/:book_id/loans", h.ListBookLoans)
}

// ---------- handlers ----------

// POST /loans
func (h *Handler) IssueBook(c *gin.Context) {
	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.IssueBook(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/loans/"+strconv.FormatInt(res.TransactionID, 10))
	c.JSON(http.StatusCreated, res)
}

// POST /returns
func (h *Handler) ReturnBook(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.ReturnBook(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /loans/:transaction_id/renew
func (h *Handler) RenewBook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("transaction_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid transaction_id"))
		return
	}

	// ボディ省略可
	var req RenewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json"))
			return
		}
	}

	res, err := h.svc.RenewBook(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /loans?status=issued
func (h *Handler) ListLoans(c *gin.Context) {
	switch c.DefaultQuery("status", "issued") {
	case "issued":
		res, err := h.svc.GetIssuedBooks(c.Request.Context())
		if err != nil {
			c.JSON(ToHTTPStatus(err), errorFromErr(err))
			return
		}
		c.JSON(http.StatusOK, res)
	default:
		// issued 以外は履歴で代替
		res, err := h.svc.GetTransactionHistory(c.Request.Context(), parseIntDefault(c.Query("limit"), 0))
		if err != nil {
			c.JSON(ToHTTPStatus(err), errorFromErr(err))
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (h *Handler) ListOverdue(c *gin.Context) {
	res, err := h.svc.GetOverdueBooks(c.Request.Context())
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListHistory(c *gin.Context) {
	res, err := h.svc.GetTransactionHistory(c.Request.Context(), parseIntDefault(c.Query("limit"), 0))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Stats(c *gin.Context) {
	res, err := h.svc.GetStatistics(c.Request.Context())
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetLoan(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("transaction_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid transaction_id"))
		return
	}
	res, err := h.svc.GetTransaction(c.Request.Context(), id)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListMemberLoans(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("member_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid member_id"))
		return
	}
	res, err := h.svc.GetMemberTransactions(c.Request.Context(), id)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MemberSummary(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("member_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid member_id"))
		return
	}
	res, err := h.svc.GetMemberSummary(c.Request.Context(), id)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListBookLoans(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("book_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid book_id"))
		return
	}
	res, err := h.svc.GetBookTransactions(c.Request.Context(), id)
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
