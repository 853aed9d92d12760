package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Spectrogram returns a spectrogram PNG (base64) for the selected region.
// This does not start a chat session, it is just a preview.
// POST /api/spectrogram (multipart: file, startSec, endSec)
func (h *ChatHandler) Spectrogram(c *gin.Context) {
	clip, ext, ok := h.readUpload(c)
	if !ok {
		return
	}

	var form struct {
		StartSec float64 `form:"startSec"`
		EndSec   float64 `form:"endSec"`
	}
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, png, ok := h.prepareAudio(c, clip, ext, form.StartSec, form.EndSec)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"spectrogramPngBase64": base64.StdEncoding.EncodeToString(png),
	})
}
