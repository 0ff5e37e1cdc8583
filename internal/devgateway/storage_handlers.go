package devgateway

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/coursehub-dev/coursehub/internal/domain"
)

const maxUploadSize = 50 << 20

func (f File) toDomain() domain.FileInfo {
	return domain.FileInfo{
		ID:          f.ID,
		Name:        f.Name,
		URL:         "/storage-service/files/" + f.ID,
		Size:        f.Size,
		ContentType: f.ContentType,
	}
}

func (s *Server) uploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "A file is required"})
		return
	}
	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"message": "File is too large"})
		return
	}

	src, err := header.Open()
	if err != nil {
		s.internalError(c, err, "Failed to read upload")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		s.internalError(c, err, "Failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			contentType = byExt
		} else {
			contentType = http.DetectContentType(data)
		}
	}

	file := &File{
		UserID:      user(c).ID,
		Name:        filepath.Base(header.Filename),
		Folder:      c.PostForm("folder"),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	if err := s.db.Create(file).Error; err != nil {
		s.internalError(c, err, "Failed to store file")
		return
	}

	s.logger.Info().Str("file_id", file.ID).Int64("size", file.Size).Msg("File uploaded")
	c.JSON(http.StatusCreated, file.toDomain())
}

func (s *Server) downloadFile(c *gin.Context) {
	var file File
	err := s.db.Where("id = ? AND user_id = ?", c.Param("id"), user(c).ID).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "File not found"})
			return
		}
		s.internalError(c, err, "Failed to load file")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
