package stages

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docpub/internal/linkcheck"
	"git.home.luguber.info/inful/docpub/internal/logfields"
	"git.home.luguber.info/inful/docpub/internal/prepare"
	"git.home.luguber.info/inful/docpub/internal/publish"
	"git.home.luguber.info/inful/docpub/internal/site"
)

// Pipeline selects which stages to run. Prepare and render always run;
// linkcheck follows configuration and publish is opt-in per invocation.
type Pipeline struct {
	Publish bool
}

// Stages returns the stage definitions for this pipeline in execution order.
func (p Pipeline) Stages(b *Build) []StageDef {
	defs := []StageDef{
		{Name: StagePrepare, Fn: PrepareStage},
		{Name: StageRender, Fn: RenderStage},
	}
	if b.Config.LinkCheck.Enabled {
		defs = append(defs, StageDef{Name: StageLinkCheck, Fn: LinkCheckStage})
	}
	if p.Publish {
		defs = append(defs, StageDef{Name: StagePublish, Fn: PublishStage})
	}
	return defs
}

// PrepareStage copies the source document to its destination, prepending
// the edit header when configured.
func PrepareStage(_ context.Context, b *Build) error {
	header := prepare.Header(b.Config.Prepare.EditURL)
	return prepare.Run(b.Config.Prepare.Source, b.Config.Prepare.Dest, header)
}

// RenderStage generates the static site from the configured pages.
func RenderStage(_ context.Context, b *Build) error {
	gen := site.NewGenerator(b.Config, b.Config.Output.Directory)
	artifact, err := gen.Build()
	if err != nil {
		return err
	}
	b.Artifact = artifact
	b.Report.Pages = len(artifact.Pages)
	return nil
}

// LinkCheckStage verifies external links in the rendered pages.
func LinkCheckStage(ctx context.Context, b *Build) error {
	checker := linkcheck.NewChecker(
		b.Config.LinkCheck.Skip,
		b.Config.LinkCheckTimeout(),
		b.Config.LinkCheck.MaxConcurrent,
	)

	files := make([]string, 0, len(b.Artifact.Pages))
	for _, p := range b.Artifact.Pages {
		files = append(files, p.OutputPath)
	}

	broken, err := checker.CheckFiles(ctx, files, b.Config.Site.BaseURL)
	b.Report.BrokenLinks = broken
	for _, bl := range broken {
		b.Recorder.IncLinkChecked(false)
		if pubErr := b.Events.BrokenLink(b.ID, bl); pubErr != nil {
			slog.Warn("Failed to publish broken link event", logfields.Error(pubErr))
		}
	}
	return err
}

// PublishStage pushes the rendered site to the configured repository.
func PublishStage(ctx context.Context, b *Build) error {
	return publish.Publish(ctx, b.Config.Publish, b.Artifact.Dir)
}
