// Package detect classifies Amplify applications for pipeline setup. It
// decides the deployment mode (repository-connected vs manual) from control
// plane metadata and profiles the project's frontend framework from its
// manifest.
package detect

// DeploymentMode is the deployment style of an Amplify application. It
// determines which workflow template variant and trigger plan apply, and
// must be resolved before any template is generated; the zero value is not
// a valid mode.
type DeploymentMode string

const (
	// ModeRepositoryConnected means the platform builds automatically on
	// every push to the linked repository.
	ModeRepositoryConnected DeploymentMode = "repository-connected"

	// ModeManual means builds must be explicitly triggered, typically via
	// webhook, because no automatic build linkage exists.
	ModeManual DeploymentMode = "manual"
)

// Valid reports whether the mode is one of the two known variants.
func (m DeploymentMode) Valid() bool {
	return m == ModeRepositoryConnected || m == ModeManual
}

// Platform is the rendering target the hosting platform must provision.
type Platform string

const (
	// PlatformServerRendered requires compute for server-side rendering
	// (Amplify platform WEB_COMPUTE).
	PlatformServerRendered Platform = "server-rendered"

	// PlatformStatic serves prebuilt assets only (Amplify platform WEB).
	PlatformStatic Platform = "static"
)

// HostingValue returns the Amplify control plane representation of the
// platform.
func (p Platform) HostingValue() string {
	if p == PlatformServerRendered {
		return "WEB_COMPUTE"
	}
	return "WEB"
}

// Framework is the detected frontend framework tag. The set is closed:
// anything unrecognized maps to FrameworkUnknown rather than an error.
type Framework string

const (
	FrameworkNextSSR      Framework = "next-ssr"
	FrameworkNextStatic   Framework = "next-static"
	FrameworkReactSPA     Framework = "react-spa"
	FrameworkVueSPA       Framework = "vue-spa"
	FrameworkAngularSPA   Framework = "angular-spa"
	FrameworkGatsbyStatic Framework = "gatsby-static"
	FrameworkNuxtSSR      Framework = "nuxt-ssr"
	FrameworkUnknown      Framework = "unknown"
)

// Platform returns the rendering platform the framework requires.
// SSR-capable frameworks need compute; everything else, including unknown
// frameworks, defaults to static.
func (f Framework) Platform() Platform {
	switch f {
	case FrameworkNextSSR, FrameworkNuxtSSR:
		return PlatformServerRendered
	default:
		return PlatformStatic
	}
}

// AppDescriptor is the immutable description of an application assembled by
// the mode detector and framework profiler for one pipeline-setup session.
type AppDescriptor struct {
	// AppID is the Amplify application identifier.
	AppID string

	// RepositoryURL is the linked repository, empty in manual mode.
	RepositoryURL string

	// Branch is the branch the pipeline targets.
	Branch string

	// Framework is the detected framework tag.
	Framework Framework

	// Platform is the rendering platform derived from the framework.
	Platform Platform

	// Mode is the resolved deployment mode.
	Mode DeploymentMode
}
