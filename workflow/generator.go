package workflow

import (
	"bytes"
	"io"
	"log/slog"
	"text/template"

	"github.com/Paretofilm/amplify-pipeline-mcp/detect"
	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

// Workflow file paths, relative to the project root.
const (
	DeployWorkflowPath  = ".github/workflows/amplify-deploy.yml"
	AutoFixWorkflowPath = ".github/workflows/amplify-auto-fix.yml"
	BuildSpecPath       = "amplify.yml"
)

// matrixKey identifies one cell of the template matrix.
type matrixKey struct {
	mode     detect.DeploymentMode
	platform detect.Platform
}

// deployMatrix is the closed template matrix. Both platforms of a mode
// share a topology; the platform still selects the cell so that an
// unsupported pair fails loudly instead of producing a wrong pipeline.
var deployMatrix = map[matrixKey]string{
	{detect.ModeRepositoryConnected, detect.PlatformServerRendered}: repositoryDeployTemplate,
	{detect.ModeRepositoryConnected, detect.PlatformStatic}:         repositoryDeployTemplate,
	{detect.ModeManual, detect.PlatformServerRendered}:              manualDeployTemplate,
	{detect.ModeManual, detect.PlatformStatic}:                      manualDeployTemplate,
}

// Generator produces pipeline artifacts from template parameters.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a Generator. A nil logger disables logging.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{logger: logger}
}

// templateContext is the data handed to workflow templates.
type templateContext struct {
	AppID             string
	Branch            string
	Region            string
	BuildCommand      string
	NodeVersion       string
	ArtifactDir       string
	HasAmplifyBackend bool
	WebhookURL        string
}

// Generate renders the full artifact plan for the given parameters.
// Generation is pure and deterministic: no filesystem or network access,
// and identical parameters yield byte-identical output.
func (g *Generator) Generate(params Params) (*Plan, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "invalid template parameters")
	}
	if params.BuildCommand == "" {
		params.BuildCommand = "npm run build"
	}
	if params.NodeVersion == "" {
		params.NodeVersion = "20"
	}

	deployTmpl, ok := deployMatrix[matrixKey{params.Mode, params.Platform}]
	if !ok {
		return nil, &TemplateSelectionError{Mode: params.Mode, Platform: params.Platform}
	}

	ctx := templateContext{
		AppID:             params.AppID,
		Branch:            params.Branch,
		Region:            params.Region,
		BuildCommand:      params.BuildCommand,
		NodeVersion:       params.NodeVersion,
		ArtifactDir:       ArtifactDir(params.Framework),
		HasAmplifyBackend: params.HasAmplifyBackend,
		WebhookURL:        params.WebhookURL,
	}

	deploy, err := render("deploy", deployTmpl, ctx)
	if err != nil {
		return nil, err
	}
	autoFix, err := render("auto-fix", autoFixTemplate, ctx)
	if err != nil {
		return nil, err
	}
	spec, err := renderBuildSpec(params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeTemplateMissing, "could not render build spec")
	}

	g.logger.Info("pipeline templates generated",
		"app_id", params.AppID, "branch", params.Branch,
		"mode", params.Mode, "platform", params.Platform)

	return &Plan{
		Deploy:    Artifact{Path: DeployWorkflowPath, Content: deploy},
		AutoFix:   Artifact{Path: AutoFixWorkflowPath, Content: autoFix},
		BuildSpec: Artifact{Path: BuildSpecPath, Content: spec},
	}, nil
}

func render(name, text string, ctx templateContext) ([]byte, error) {
	tmpl, err := template.New(name).Delims("[[", "]]").Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeTemplateMissing, "could not parse %s template", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, errors.Wrapf(err, errors.CodeTemplateMissing, "could not render %s template", name)
	}
	return buf.Bytes(), nil
}
