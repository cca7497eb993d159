package router

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"face_cropper/internal/app/config"
	facecrophandler "face_cropper/internal/feature/facecrop/transport/handler"
	"face_cropper/internal/platform/http/handler"
	"face_cropper/internal/platform/http/middleware"
	jwtmw "face_cropper/internal/platform/jwt"
	"face_cropper/internal/platform/requestid"
)

func NewRouter(cropH *facecrophandler.FaceCropHandler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())

	// 認証不要
	// 使い方ページ
	r.GET("/", handler.Index)
	// 導通確認用
	for _, path := range []string{"/health", "/healthz"} {
		r.GET(path, handler.Health)
		r.HEAD(path, handler.Health)
		r.OPTIONS(path, handler.Health)
	}

	// 顔切り出し。CORSはこのグループにだけ適用する
	crop := r.Group("/crop-face")
	crop.Use(cors.New(corsConfig(cfg.AllowOrigins)))
	{
		crop.OPTIONS("", cropH.Preflight)
		if cfg.AuthRequired {
			// AUTH_REQUIRED=true の場合だけ Bearer トークンが必要になる
			crop.POST("", jwtmw.AuthRequired(), cropH.CropFace)
		} else {
			crop.POST("", cropH.CropFace)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestid.Header},
		ExposeHeaders: []string{requestid.Header},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
