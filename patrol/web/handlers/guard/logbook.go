package guard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"guardpatrol.com/patrol/infrastructure/filesystem"
	"guardpatrol.com/patrol/patrol/model"
	web "guardpatrol.com/patrol/web/common"
)

const (
	defaultLogbookLimit = 50
	maxLogbookLimit     = 200
	maxUploadMemory     = 50 << 20
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

var uploadExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

func (ep *Endpoint) ListLogbook(c *gin.Context) {
	guardID, ok := ep.Base.GuardID(c)
	if !ok {
		return
	}

	limit := defaultLogbookLimit
	offset := 0
	if val, err := strconv.Atoi(c.Query("limit")); err == nil && val > 0 {
		limit = min(val, maxLogbookLimit)
	}
	if val, err := strconv.Atoi(c.Query("offset")); err == nil && val > 0 {
		offset = val
	}

	entries, total, err := ep.Store.ListLogbook(c.Request.Context(), guardID, limit, offset)
	if err != nil {
		ep.Base.Fail(c, "Failed to list logbook", err)
		return
	}
	if entries == nil {
		entries = []model.LogbookEntry{}
	}

	c.JSON(http.StatusOK, web.NewSearchResponse(entries, total).Page(limit, offset))
}

type LogbookDTO struct {
	Rut         string `json:"rut" binding:"required,rut"`
	Kind        string `json:"kind"`
	Description string `json:"description" binding:"required"`
	// Photo is base64 image data, optionally as a data URL.
	Photo string `json:"photo"`
}

func (ep *Endpoint) CreateLogbookEntry(c *gin.Context) {
	var dto LogbookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(web.FormatBindingError(err)))
		return
	}

	var photo []byte
	var ext string
	if dto.Photo != "" {
		var err error
		if photo, ext, err = decodePhoto(dto.Photo); err != nil {
			c.JSON(http.StatusBadRequest, web.NewErrorResponse(err.Error()))
			return
		}
	}

	ctx := c.Request.Context()
	guard, err := ep.Store.FindGuardByRut(ctx, web.NormalizeRut(dto.Rut))
	if err != nil {
		ep.Base.Fail(c, "Failed to load guard", err)
		return
	}
	if guard == nil {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Guard not found"))
		return
	}

	entry := model.LogbookEntry{
		GuardID:     guard.ID,
		Kind:        model.NormalizeLogKind(dto.Kind),
		Description: dto.Description,
	}
	if photo != nil {
		key := fmt.Sprintf("logbook/%d/%s%s", guard.ID, uuid.NewString(), ext)
		if err := ep.Photos.Save(ctx, key, bytes.NewReader(photo), mime.TypeByExtension(ext)); err != nil {
			ep.Base.Fail(c, "Failed to store photo", err)
			return
		}
		entry.PhotoKey = &key
	}
	if err := ep.Store.CreateLogbookEntry(ctx, &entry); err != nil {
		ep.Base.Fail(c, "Failed to save logbook entry", err)
		return
	}

	c.JSON(http.StatusCreated, web.NewSuccessResponse(entry))
}

// decodePhoto accepts raw base64 or a data URL and only lets JPEG and PNG
// through.
func decodePhoto(s string) ([]byte, string, error) {
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			s = payload
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", errors.New("photo is not valid base64")
	}
	ext, ok := photoExtensions[http.DetectContentType(data)]
	if !ok {
		return nil, "", errors.New("photo must be a JPEG or PNG image")
	}
	return data, ext, nil
}

func (ep *Endpoint) LogbookPhoto(c *gin.Context) {
	id, ok := ep.Base.ParamID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	entry, err := ep.Store.FindLogbookEntry(ctx, id)
	if err != nil {
		ep.Base.Fail(c, "Failed to load logbook entry", err)
		return
	}
	if entry == nil || entry.PhotoKey == nil {
		c.JSON(http.StatusNotFound, web.NewErrorResponse("Photo not found"))
		return
	}

	var buf bytes.Buffer
	if err := ep.Photos.Read(ctx, *entry.PhotoKey, &buf); err != nil {
		if errors.Is(err, filesystem.ErrNotFound) {
			c.JSON(http.StatusNotFound, web.NewErrorResponse("Photo not found"))
			return
		}
		ep.Base.Fail(c, "Failed to read photo", err)
		return
	}

	c.Data(http.StatusOK, http.DetectContentType(buf.Bytes()), buf.Bytes())
}

// Upload stores multipart "files" parts. Files with other extensions are
// skipped.
func (ep *Endpoint) Upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		c.JSON(http.StatusBadRequest, web.NewErrorResponse(err.Error()))
		return
	}

	files := c.Request.MultipartForm.File["files"]
	uploaded := []string{}

	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !uploadExtensions[ext] {
			continue
		}

		src, err := file.Open()
		if err != nil {
			ep.Base.Fail(c, "Failed to read upload", err)
			return
		}
		key := fmt.Sprintf("uploads/%s%s", uuid.NewString(), ext)
		err = ep.Photos.Save(c.Request.Context(), key, src, mime.TypeByExtension(ext))
		src.Close()
		if err != nil {
			ep.Base.Fail(c, "Failed to store upload", err)
			return
		}

		uploaded = append(uploaded, key)
	}

	c.JSON(http.StatusOK, web.NewSuccessResponse(gin.H{
		"message": fmt.Sprintf("%d files uploaded", len(uploaded)),
		"files":   uploaded,
	}))
}
