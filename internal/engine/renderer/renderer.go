// Package renderer initialises OpenGL for the current context.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
)

// Info describes the active GL implementation.
type Info struct {
	Version  string
	Renderer string
	Vendor   string
	GLSL     string
}

// Init loads GL function pointers and sets default state.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func Init(log *zap.Logger) (Info, error) {
	if err := gl.Init(); err != nil {
		return Info{}, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	info := Info{
		Version:  gl.GoStr(gl.GetString(gl.VERSION)),
		Renderer: gl.GoStr(gl.GetString(gl.RENDERER)),
		Vendor:   gl.GoStr(gl.GetString(gl.VENDOR)),
		GLSL:     gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}
	log.Info("OpenGL initialized",
		zap.String("version", info.Version),
		zap.String("renderer", info.Renderer),
		zap.String("vendor", info.Vendor),
		zap.String("glsl", info.GLSL),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	return info, nil
}

// CheckError logs any pending GL errors and reports whether there were any.
func CheckError(log *zap.Logger, where string) bool {
	failed := false
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		log.Warn("GL error", zap.String("where", where), zap.Uint32("code", code))
		failed = true
	}
	return failed
}
