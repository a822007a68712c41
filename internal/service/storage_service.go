package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prevention_edu_backend/internal/config"
	"prevention_edu_backend/internal/util"
	"prevention_edu_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	UploadFile(ctx context.Context, filename string, localPath string, contentType string) (string, error)
	Delete(ctx context.Context, filename string) error
	GetURL(filename string) string
}

// LocalStorageProvider 本地存储实现。每次操作读取配置快照，
// 存储目录跟随配置热更新
type LocalStorageProvider struct {
	Cfg *config.Config
}

func (p *LocalStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Cfg.StorageSettings().LocalPath, filename)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}

	return p.GetURL(filename), nil
}

func (p *LocalStorageProvider) UploadFile(ctx context.Context, filename string, localPath string, contentType string) (string, error) {
	dst := filepath.Join(p.Cfg.StorageSettings().LocalPath, filename)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	if localPath == dst {
		return p.GetURL(filename), nil
	}

	srcFile, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return "", err
	}

	return p.GetURL(filename), nil
}

func (p *LocalStorageProvider) Delete(ctx context.Context, filename string) error {
	return os.Remove(filepath.Join(p.Cfg.StorageSettings().LocalPath, filename))
}

func (p *LocalStorageProvider) GetURL(filename string) string {
	return "/uploads/" + filename
}

// MinioStorageProvider MinIO 存储实现。客户端绑定建连时的配置，
// 端点或凭证变更需要重启
type MinioStorageProvider struct {
	Config config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, filename, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *MinioStorageProvider) UploadFile(ctx context.Context, filename string, localPath string, contentType string) (string, error) {
	_, err := p.Client.FPutObject(ctx, p.Config.MinioBucket, filename, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *MinioStorageProvider) Delete(ctx context.Context, filename string) error {
	return p.Client.RemoveObject(ctx, p.Config.MinioBucket, filename, minio.RemoveObjectOptions{})
}

func (p *MinioStorageProvider) GetURL(filename string) string {
	return "/" + p.Config.MinioBucket + "/" + filename
}

// OSSStorageProvider 阿里云 OSS 存储实现
type OSSStorageProvider struct {
	Config config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}

	if err := bucket.PutObject(filename, reader); err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *OSSStorageProvider) UploadFile(ctx context.Context, filename string, localPath string, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}

	if err := bucket.PutObjectFromFile(filename, localPath); err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *OSSStorageProvider) Delete(ctx context.Context, filename string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.DeleteObject(filename)
}

func (p *OSSStorageProvider) GetURL(filename string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Config.OSSBucket, p.Config.OSSEndpoint, filename)
}

// StorageService 课程封面与课时附件的上传入口
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	storageCfg := cfg.StorageSettings()

	var provider StorageProvider
	switch storageCfg.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(storageCfg)
		if err == nil {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(storageCfg)
		if err == nil {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Cfg: cfg}
	}

	return &StorageService{Provider: provider}
}

type UploadedFile struct {
	URL          string          `json:"url"`
	ThumbnailURL string          `json:"thumbnailUrl,omitempty"`
	FileName     string          `json:"fileName"`
	FileSize     int64           `json:"fileSize"`
	MimeType     string          `json:"mimeType"`
	VideoInfo    *util.VideoInfo `json:"videoInfo,omitempty"`
}

// UploadThumbnail 课程封面，只收图片
func (s *StorageService) UploadThumbnail(ctx context.Context, header *multipart.FileHeader) (*UploadedFile, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, []string{util.MimeImage})
	if err != nil || !util.IsImage(mimeType) {
		return nil, util.NewValidationError("封面必须是图片文件")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	filename := storedFilename("thumbnails", header.Filename)
	url, err := s.Provider.Upload(ctx, filename, file, header.Size, mimeType)
	if err != nil {
		return nil, err
	}

	return &UploadedFile{
		URL:      url,
		FileName: header.Filename,
		FileSize: header.Size,
		MimeType: mimeType,
	}, nil
}

// UploadContentFile 课时附件。视频额外走 ffmpeg 探测，
// 其余按文档扩展名白名单校验
func (s *StorageService) UploadContentFile(ctx context.Context, header *multipart.FileHeader) (*UploadedFile, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	isVideo := containsExt(util.AllowedVideoExtensions, ext)
	if !isVideo && !containsExt(util.AllowedDocumentExtensions, ext) {
		return nil, util.NewValidationError("不支持的文件类型: %s", ext)
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	allowed := []string{util.MimePDF, util.MimeOctetStream, "application/"}
	if isVideo {
		allowed = []string{util.MimeVideo, util.MimeOctetStream}
	}
	mimeType, err := util.ValidateMimeType(file, allowed)
	if err != nil {
		return nil, util.NewValidationError("文件内容与扩展名不符")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	uploaded := &UploadedFile{
		FileName: header.Filename,
		FileSize: header.Size,
		MimeType: mimeType,
	}

	// 视频先落盘探测元数据，再走 provider 上传
	if isVideo {
		tmp, err := os.CreateTemp("", "content-upload-*"+ext)
		if err != nil {
			return nil, err
		}
		defer os.Remove(tmp.Name())
		defer tmp.Close()

		if _, err := io.Copy(tmp, file); err != nil {
			return nil, err
		}

		if info, err := util.GetVideoInfo(tmp.Name()); err == nil {
			uploaded.VideoInfo = info
		} else {
			logger.Log.Warn("failed to probe uploaded video",
				zap.String("file", header.Filename), zap.Error(err))
		}

		// 内容确实是视频流时抓取首秒一帧作为封面候选图
		if util.IsVideo(mimeType) {
			thumbPath := filepath.Join(os.TempDir(), "thumb_"+util.GenerateRandomString(8)+".jpg")
			if err := util.GenerateThumbnail(tmp.Name(), thumbPath, "00:00:01"); err == nil {
				defer os.Remove(thumbPath)
				thumbName := storedFilename("thumbnails", "frame.jpg")
				if thumbURL, err := s.Provider.UploadFile(ctx, thumbName, thumbPath, "image/jpeg"); err == nil {
					uploaded.ThumbnailURL = thumbURL
				}
			} else {
				logger.Log.Warn("failed to generate video thumbnail",
					zap.String("file", header.Filename), zap.Error(err))
			}
		}

		filename := storedFilename("contents", header.Filename)
		url, err := s.Provider.UploadFile(ctx, filename, tmp.Name(), mimeType)
		if err != nil {
			return nil, err
		}
		uploaded.URL = url
		return uploaded, nil
	}

	filename := storedFilename("contents", header.Filename)
	url, err := s.Provider.Upload(ctx, filename, file, header.Size, mimeType)
	if err != nil {
		return nil, err
	}
	uploaded.URL = url
	return uploaded, nil
}

func (s *StorageService) Delete(ctx context.Context, filename string) error {
	return s.Provider.Delete(ctx, filename)
}

func (s *StorageService) GetURL(filename string) string {
	return s.Provider.GetURL(filename)
}

func storedFilename(prefix, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%s/%s_%s%s", prefix,
		time.Now().Format("20060102150405"),
		uuid.New().String(), ext)
}

func containsExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
