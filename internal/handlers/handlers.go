package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/saloneverid/internal/config"
	"github.com/example/saloneverid/internal/logging"
	"github.com/example/saloneverid/internal/usecase"
)

// submitRequest uses pointers so "required" only checks the key is present;
// empty strings are accepted and an empty image decodes to no image.
type submitRequest struct {
	FullName       *string `json:"full_name" binding:"required"`
	DateOfBirth    *string `json:"dob" binding:"required"`
	DocumentType   *string `json:"document_type" binding:"required"`
	DocumentNumber *string `json:"document_number"`
	SelfieImage    *string `json:"selfie_image" binding:"required"`
	IDImage        *string `json:"id_image" binding:"required"`
}

func (r *submitRequest) submission() usecase.Submission {
	return usecase.Submission{
		FullName:       deref(r.FullName),
		DateOfBirth:    deref(r.DateOfBirth),
		DocumentType:   deref(r.DocumentType),
		DocumentNumber: deref(r.DocumentNumber),
		SelfieImage:    deref(r.SelfieImage),
		IDImage:        deref(r.IDImage),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type submitResponse struct {
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
}

type statusResponse struct {
	Status        string  `json:"status"`
	MatchScore    float64 `json:"match_score"`
	DocumentValid bool    `json:"document_valid"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.VerificationUseCase, maxBodySize int64) {
	if maxBodySize <= 0 {
		maxBodySize = config.DefaultMaxBodyBytes
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": uc.ProviderName()})
	})

	kyc := router.Group("/kyc")

	kyc.POST("/submit", limitBody(maxBodySize), func(c *gin.Context) {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := uc.Submit(c.Request.Context(), req.submission())
		if err != nil {
			_ = c.Error(err)
			if logging.KindOf(err) == logging.KindProvider {
				c.JSON(http.StatusBadGateway, gin.H{"error": "verification service unavailable"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record submission"})
			return
		}

		c.JSON(http.StatusOK, submitResponse{ReferenceID: res.ReferenceID, Status: string(res.Status)})
	})

	kyc.GET("/status/:reference_id", func(c *gin.Context) {
		verdict, err := uc.GetStatus(c.Request.Context(), c.Param("reference_id"))
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load status"})
			return
		}

		c.JSON(http.StatusOK, statusResponse{
			Status:        string(verdict.Status),
			MatchScore:    verdict.MatchScore,
			DocumentValid: verdict.DocumentValid,
		})
	})

	kyc.GET("/summary", func(c *gin.Context) {
		report, err := uc.GetSummary(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
			return
		}
		c.JSON(http.StatusOK, report)
	})
}

func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
