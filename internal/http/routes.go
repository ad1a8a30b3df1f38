package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/config"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/domain"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/media"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/pipeline"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/services"
	"github.com/Rishab-Kumar09/AI-Ad-generator/internal/storage"
)

type API struct {
	cfg        config.Config
	files      *storage.FileManager
	store      *storage.Store
	openai     *services.OpenAIService
	storyboard *services.StoryboardService
	share      *services.ShareService
	tool       media.Tool
}

func NewAPI(cfg config.Config, fm *storage.FileManager, store *storage.Store, openai *services.OpenAIService, storyboard *services.StoryboardService, share *services.ShareService, tool media.Tool) *API {
	return &API{cfg: cfg, files: fm, store: store, openai: openai, storyboard: storyboard, share: share, tool: tool}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)

		apiGroup.GET("/projects", api.handleListProjects)
		apiGroup.POST("/projects", api.handleCreateProject)
		apiGroup.GET("/projects/:id", api.handleGetProject)
		apiGroup.DELETE("/projects/:id", api.handleDeleteProject)

		apiGroup.POST("/projects/:id/images", api.handleUploadImage)
		apiGroup.POST("/projects/:id/analyze", api.handleAnalyzeImages)
		apiGroup.POST("/projects/:id/script", api.handleDraftScript)
		apiGroup.PUT("/projects/:id/script", api.handleUpdateScript)
		apiGroup.PATCH("/projects/:id/settings", api.handleUpdateSettings)
		apiGroup.POST("/projects/:id/render", api.handleRender)
		apiGroup.POST("/projects/:id/storyboard", api.handleGenerateStoryboard)
		apiGroup.GET("/projects/:id/storyboard", api.handleServeStoryboard)
	}

	r.GET("/video/:id", api.handleServeVideo)
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleListProjects(c *gin.Context) {
	projects := a.store.ListProjects()
	c.JSON(http.StatusOK, projects)
}

func (a *API) handleCreateProject(c *gin.Context) {
	var payload struct {
		Niche string `json:"niche" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	niche := domain.Niche(strings.TrimSpace(payload.Niche))
	if !niche.Valid() {
		respondMessage(c, http.StatusBadRequest, "unknown niche")
		return
	}

	project, err := a.store.CreateProject(domain.Project{
		Niche:    niche,
		Settings: domain.DefaultRenderSettings(),
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

func (a *API) handleGetProject(c *gin.Context) {
	project, err := a.store.GetProject(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	c.JSON(http.StatusOK, project)
}

func (a *API) handleDeleteProject(c *gin.Context) {
	projectID := c.Param("id")
	project, err := a.store.GetProject(projectID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	if err := a.store.DeleteProject(projectID); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	for _, asset := range project.Assets {
		if asset.Path != "" {
			_ = os.Remove(asset.Path)
		}
	}
	if project.Render != nil && project.Render.VideoID != "" {
		_ = os.Remove(a.files.VideoPath(project.Render.VideoID))
	}
	_ = os.Remove(a.files.StoryboardPath(projectID))

	c.Status(http.StatusNoContent)
}

func (a *API) handleUploadImage(c *gin.Context) {
	project, err := a.store.GetProject(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "missing image file")
		return
	}

	category := strings.TrimSpace(c.PostForm("category"))
	if category == "" {
		respondMessage(c, http.StatusBadRequest, "missing category label")
		return
	}
	log.Printf("Received upload: project=%s filename=%s size=%d category=%s",
		project.ID, fileHeader.Filename, fileHeader.Size, category)

	upload, err := fileHeader.Open()
	if err != nil {
		log.Printf("error opening upload: %v", err)
		respondMessage(c, http.StatusInternalServerError, "unable to read uploaded file")
		return
	}
	defer upload.Close()

	path, mimeType, size, err := a.files.SaveUploadedImage(upload, fileHeader.Filename)
	if err != nil {
		log.Printf("error saving uploaded image: %v", err)
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	asset := domain.UploadedAsset{
		ID:        uuid.NewString(),
		FileName:  fileHeader.Filename,
		MimeType:  mimeType,
		SizeBytes: size,
		Category:  strings.ToLower(category),
		Path:      path,
	}
	project.Assets = append(project.Assets, asset)

	saved, err := a.store.UpdateProject(project)
	if err != nil {
		_ = os.Remove(path)
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"asset": asset, "project": saved})
}

// handleAnalyzeImages runs the vision capability over every uploaded asset,
// one at a time. Failures are reported per image; one bad image does not
// fail the batch.
func (a *API) handleAnalyzeImages(c *gin.Context) {
	project, err := a.store.GetProject(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	if len(project.Assets) == 0 {
		respondMessage(c, http.StatusBadRequest, "no images uploaded")
		return
	}

	ctx := c.Request.Context()

	if project.Analyses == nil {
		project.Analyses = map[string]domain.ImageAnalysis{}
	}

	type itemResult struct {
		FileName string                `json:"fileName"`
		Analysis *domain.ImageAnalysis `json:"analysis,omitempty"`
		Error    string                `json:"error,omitempty"`
	}

	results := make([]itemResult, 0, len(project.Assets))
	succeeded := 0
	for _, asset := range project.Assets {
		imageBytes, readErr := os.ReadFile(asset.Path)
		if readErr != nil {
			results = append(results, itemResult{FileName: asset.FileName, Error: "unreadable upload"})
			continue
		}

		analysis, analyzeErr := a.openai.DescribeImage(ctx, imageBytes, asset.MimeType, asset, project.Niche)
		if analyzeErr != nil {
			log.Printf("analysis failed for %s: %v", asset.FileName, analyzeErr)
			results = append(results, itemResult{FileName: asset.FileName, Error: analyzeErr.Error()})
			continue
		}

		project.Analyses[asset.FileName] = analysis
		results = append(results, itemResult{FileName: asset.FileName, Analysis: &analysis})
		succeeded++
	}

	if succeeded > 0 {
		project.Status = domain.StatusAnalyzed
	}
	saved, err := a.store.UpdateProject(project)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "project": saved})
}

func (a *API) handleDraftScript(c *gin.Context) {
	project, err := a.store.GetProject(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	if len(project.Analyses) == 0 {
		respondMessage(c, http.StatusBadRequest, "analyze images before drafting a script")
		return
	}

	draft, err := a.openai.DraftScript(c.Request.Context(), project.Assets, project.Analyses, project.Niche)
	if err != nil {
		log.Printf("script draft failed: %v", err)
		respondMessage(c, http.StatusBadGateway, err.Error())
		return
	}

	project.Script = draft
	project.Status = domain.StatusScripted
	saved, err := a.store.UpdateProject(project)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"script": draft, "project": saved})
}

func (a *API) handleUpdateScript(c *gin.Context) {
	project, err := a.store.GetProject(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	var payload struct {
		Script string `json:"script" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	project.Script = payload.Script
	project.Status = domain.StatusScripted
	saved, err := a.store.UpdateProject(project)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

func (a *API) handleUpdateSettings(c *gin.Context) {
	project, err := a.store.GetProject(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	var payload struct {
		Voice     *string `json:"voice"`
		Music     *string `json:"music"`
		MusicGain *int    `json:"musicGain"`
		Aspect    *string `json:"aspect"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	settings := project.Settings
	if payload.Voice != nil {
		if !domain.ValidVoice(*payload.Voice) {
			respondMessage(c, http.StatusBadRequest, "unknown voice")
			return
		}
		settings.Voice = *payload.Voice
	}
	if payload.Music != nil {
		if !domain.ValidMusic(*payload.Music) {
			respondMessage(c, http.StatusBadRequest, "unknown music selection")
			return
		}
		settings.Music = *payload.Music
	}
	if payload.MusicGain != nil {
		if *payload.MusicGain < domain.MusicGainMin || *payload.MusicGain > domain.MusicGainMax {
			respondMessage(c, http.StatusBadRequest, "music gain must be between 5 and 50")
			return
		}
		settings.MusicGain = *payload.MusicGain
	}
	if payload.Aspect != nil {
		aspect := domain.AspectRatio(*payload.Aspect)
		if !aspect.Valid() {
			respondMessage(c, http.StatusBadRequest, "unknown aspect ratio")
			return
		}
		settings.Aspect = aspect
	}

	project.Settings = settings
	saved, err := a.store.UpdateProject(project)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

// handleRender runs the full pipeline for the project, blocking until the
// artifact is finalized or a stage fails. Concurrent renders of different
// projects are safe: each run gets its own scratch directory and a
// timestamp-qualified output name.
func (a *API) handleRender(c *gin.Context) {
	project, err := a.store.GetProject(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	if len(project.Assets) == 0 {
		respondMessage(c, http.StatusBadRequest, "no images uploaded")
		return
	}
	if strings.TrimSpace(project.Script) == "" {
		respondMessage(c, http.StatusBadRequest, "project has no script")
		return
	}

	runID := uuid.NewString()
	scratchDir, err := a.files.NewRunScratch(runID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	musicPath := ""
	if project.Settings.Music != "none" {
		candidate := filepath.Join(a.cfg.MusicDir, project.Settings.Music+".mp3")
		if _, statErr := os.Stat(candidate); statErr == nil {
			musicPath = candidate
		} else {
			log.Printf("music track %q missing, rendering voiceover only", project.Settings.Music)
		}
	}

	videoID := project.ID + "-" + strconv.FormatInt(time.Now().Unix(), 10)

	project.Status = domain.StatusRendering
	project.Error = ""
	if project, err = a.store.UpdateProject(project); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), a.cfg.RenderTimeout)
	defer cancel()

	result, runErr := pipeline.Run(ctx, pipeline.Deps{
		Tool:  a.tool,
		Synth: a.openai,
		Logf:  log.Printf,
	}, pipeline.Input{
		RunID:      runID,
		Assets:     project.Assets,
		Script:     project.Script,
		Settings:   project.Settings,
		Vocabulary: domain.VocabularyFor(project.Niche),
		ScratchDir: scratchDir,
		MusicPath:  musicPath,
		OutputPath: a.files.VideoPath(videoID),
	})

	// The run consumed the uploads on either path.
	project.Assets = clearAssetPaths(project.Assets)

	if runErr != nil {
		project.Status = domain.StatusFailed
		project.Error = runErr.Error()
		if _, saveErr := a.store.UpdateProject(project); saveErr != nil {
			log.Printf("save failed project: %v", saveErr)
		}

		status := http.StatusBadGateway
		stage := ""
		var stageError *pipeline.StageError
		if errors.As(runErr, &stageError) {
			stage = string(stageError.Stage)
		}
		c.JSON(status, gin.H{"error": runErr.Error(), "stage": stage})
		return
	}

	project.Status = domain.StatusRendered
	project.Render = &domain.RenderResult{
		VideoPath:       result.VideoPath,
		VideoID:         videoID,
		SizeBytes:       result.SizeBytes,
		DurationSeconds: result.DurationSeconds,
	}
	saved, err := a.store.UpdateProject(project)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	url, expiresAt, err := a.share.Generate(videoID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project":   saved,
		"video":     saved.Render,
		"url":       url,
		"expiresAt": expiresAt.UTC(),
	})
}

func (a *API) handleGenerateStoryboard(c *gin.Context) {
	project, err := a.store.GetProject(c.Param("id"))
	if err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	if len(project.Assets) == 0 {
		respondMessage(c, http.StatusBadRequest, "no images uploaded")
		return
	}

	outPath := a.files.StoryboardPath(project.ID)
	if err := a.storyboard.GenerateStoryboard(project, outPath); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"storyboardPath": outPath})
}

func (a *API) handleServeStoryboard(c *gin.Context) {
	projectID := c.Param("id")
	if _, err := a.store.GetProject(projectID); err != nil {
		respondMessage(c, http.StatusNotFound, "project not found")
		return
	}

	path := a.files.StoryboardPath(projectID)
	if _, err := os.Stat(path); err != nil {
		respondMessage(c, http.StatusNotFound, "storyboard not generated")
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.FileAttachment(path, filepath.Base(path))
}

func (a *API) handleServeVideo(c *gin.Context) {
	videoID := c.Param("id")
	expiresParam := c.Query("exp")
	signature := c.Query("sig")

	if expiresParam == "" || signature == "" {
		respondMessage(c, http.StatusBadRequest, "missing signature")
		return
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid expiration")
		return
	}

	if expires < time.Now().Unix() {
		respondMessage(c, http.StatusGone, "link expired")
		return
	}

	path := c.Request.URL.Path
	if !a.share.Validate(path, expires, signature) {
		respondMessage(c, http.StatusForbidden, "invalid signature")
		return
	}

	project, err := a.store.FindProjectByVideoID(videoID)
	if err != nil {
		respondMessage(c, http.StatusNotFound, "video not found")
		return
	}

	videoPath := project.Render.VideoPath
	if videoPath == "" {
		videoPath = a.files.VideoPath(videoID)
	}

	if _, err := os.Stat(videoPath); err != nil {
		respondMessage(c, http.StatusNotFound, "video not found")
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.FileAttachment(videoPath, filepath.Base(videoPath))
}

func clearAssetPaths(assets []domain.UploadedAsset) []domain.UploadedAsset {
	cleared := make([]domain.UploadedAsset, len(assets))
	for i, a := range assets {
		a.Path = ""
		cleared[i] = a
	}
	return cleared
}

func respondError(c *gin.Context, status int, err error) {
	respondMessage(c, status, err.Error())
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
