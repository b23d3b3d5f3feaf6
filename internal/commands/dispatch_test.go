package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/stackkeeper/internal/commands"
	"github.com/skaphos/stackkeeper/internal/orchestrator"
	"github.com/skaphos/stackkeeper/internal/state"
)

// captureRunner records the orchestrator invocation and snapshots the
// manifest handed over via --file at call time, before temporary
// decrypted copies are removed again.
type captureRunner struct {
	dir      string
	bin      string
	args     []string
	manifest string
	result   orchestrator.ProcessResult
}

func (r *captureRunner) Run(_ context.Context, dir, bin string, args ...string) (orchestrator.ProcessResult, error) {
	r.dir, r.bin, r.args = dir, bin, args
	for i, arg := range args {
		if arg != "--file" || i+1 >= len(args) {
			continue
		}
		path := args[i+1]
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if data, err := os.ReadFile(path); err == nil {
			r.manifest = string(data)
		}
	}
	return r.result, nil
}

func writeFile(dir, rel, content string) {
	path := filepath.Join(dir, rel)
	ExpectWithOffset(1, os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	ExpectWithOffset(1, os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
}

var _ = Describe("Dispatch", func() {
	var (
		ctx    context.Context
		dir    string
		out    *strings.Builder
		errOut *strings.Builder
		runner *captureRunner
	)

	newContext := func() *commands.Context {
		return &commands.Context{
			Dir:        dir,
			AppVersion: "1.0.0",
			Out:        out,
			Err:        errOut,
			OrchRunner: runner,
		}
	}

	dispatch := func(cmd state.Command, args ...string) int {
		return commands.Dispatch(ctx, newContext(), cmd, args)
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = filepath.Join(GinkgoT().TempDir(), "deploy")
		out = &strings.Builder{}
		errOut = &strings.Builder{}
		runner = &captureRunner{}
	})

	initAndApply := func() {
		ExpectWithOffset(1, dispatch(state.CmdConfigureInit)).To(BeZero(), errOut.String())
		writeFile(dir, "settings.yml", "app: demo\n")
		writeFile(dir, "templates/docker-compose.yml.tmpl", "services:\n  web:\n    image: {{ .settings.app }}\n")
		ExpectWithOffset(1, dispatch(state.CmdConfigureApply)).To(BeZero(), errOut.String())
	}

	Describe("state gating", func() {
		It("refuses everything but install without a directory", func() {
			dir = ""
			Expect(dispatch(state.CmdServiceStart)).To(Equal(1))
			Expect(errOut.String()).To(ContainSubstring("no configuration directory"))
			Expect(dispatch(state.CmdInstall)).To(BeZero())
			Expect(out.String()).To(ContainSubstring("--dir"))
		})

		It("refuses runtime commands before the first apply", func() {
			Expect(dispatch(state.CmdConfigureInit)).To(BeZero())
			Expect(dispatch(state.CmdServiceStart)).To(Equal(1))
			Expect(errOut.String()).To(ContainSubstring("never been applied"))
		})

		It("refuses to initialise twice", func() {
			Expect(dispatch(state.CmdConfigureInit)).To(BeZero())
			Expect(dispatch(state.CmdConfigureInit)).To(Equal(1))
			Expect(errOut.String()).To(ContainSubstring("already exists"))
		})

		It("rejects a command outside the vocabulary", func() {
			Expect(dispatch(state.Command("frobnicate"))).To(Equal(1))
			Expect(errOut.String()).To(ContainSubstring("unknown command"))
		})
	})

	Describe("forced downgrade", func() {
		tamperGenerated := func() {
			initAndApply()
			writeFile(dir, ".generated/docker-compose.yml", "services: {}\n")
		}

		It("asks for confirmation on an interactive --force", func() {
			tamperGenerated()
			c := newContext()
			c.Force = true
			c.In = strings.NewReader("n\n")
			Expect(commands.Dispatch(ctx, c, state.CmdConfigureApply, nil)).To(Equal(1))
			Expect(out.String()).To(ContainSubstring("Continue anyway?"))
			Expect(errOut.String()).To(ContainSubstring("Aborted"))
		})

		It("proceeds once the operator confirms", func() {
			tamperGenerated()
			c := newContext()
			c.Force = true
			c.In = strings.NewReader("y\n")
			Expect(commands.Dispatch(ctx, c, state.CmdConfigureApply, nil)).To(BeZero(), errOut.String())
		})

		It("skips the prompt without an interactive input", func() {
			tamperGenerated()
			c := newContext()
			c.Force = true
			Expect(commands.Dispatch(ctx, c, state.CmdConfigureApply, nil)).To(BeZero(), errOut.String())
			Expect(out.String()).NotTo(ContainSubstring("Continue anyway?"))
		})

		It("never prompts for an allowed command", func() {
			initAndApply()
			c := newContext()
			c.Force = true
			c.In = strings.NewReader("n\n")
			Expect(commands.Dispatch(ctx, c, state.CmdConfigureGet, []string{"settings.app"})).To(BeZero())
			Expect(out.String()).NotTo(ContainSubstring("Continue anyway?"))
		})
	})

	Describe("configure flow", func() {
		It("initialises, applies and reads settings back", func() {
			initAndApply()
			Expect(dispatch(state.CmdConfigureGet, "settings.app")).To(BeZero())
			Expect(out.String()).To(ContainSubstring("demo"))

			data, err := os.ReadFile(filepath.Join(dir, ".generated", "docker-compose.yml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("image: demo"))
		})

		It("parses set values as typed scalars", func() {
			Expect(dispatch(state.CmdConfigureInit)).To(BeZero())
			writeFile(dir, "settings.yml", "app: demo\n")
			Expect(dispatch(state.CmdConfigureSet, "settings.replicas", "3")).To(BeZero())

			c := newContext()
			Expect(commands.Dispatch(ctx, c, state.CmdConfigureGet, []string{"settings.replicas"})).To(BeZero())
			Expect(out.String()).To(ContainSubstring("3"))
		})

		It("lists templates with their layer", func() {
			initAndApply()
			writeFile(dir, "overrides/docker-compose.yml.tmpl", "services: {}\n")
			Expect(dispatch(state.CmdConfigureTemplateList)).To(BeZero())
			Expect(out.String()).To(ContainSubstring("docker-compose.yml.tmpl"))
			Expect(out.String()).To(ContainSubstring("overrides"))
		})

		It("renders a single template to stdout", func() {
			initAndApply()
			Expect(dispatch(state.CmdConfigureTemplateRender, "docker-compose.yml")).To(BeZero())
			Expect(out.String()).To(ContainSubstring("image: demo"))
		})

		It("fails the exit code on a bad template", func() {
			initAndApply()
			writeFile(dir, "templates/bad.conf.tmpl", "{{ .settings.missing }}")
			Expect(dispatch(state.CmdConfigureApply)).To(Equal(1))
			Expect(errOut.String()).To(ContainSubstring("missing"))
		})
	})

	Describe("encrypt", func() {
		It("prints an envelope that round-trips through get --decrypt", func() {
			Expect(dispatch(state.CmdConfigureInit)).To(BeZero())
			writeFile(dir, "settings.yml", "app: demo\n")

			out.Reset()
			Expect(dispatch(state.CmdEncrypt, "hunter2")).To(BeZero())
			envelope := strings.TrimSpace(out.String())
			Expect(envelope).To(HavePrefix("enc:aes256gcm:"))

			Expect(dispatch(state.CmdConfigureSet, "settings.password", envelope)).To(BeZero())

			out.Reset()
			c := newContext()
			c.Decrypt = true
			Expect(commands.Dispatch(ctx, c, state.CmdConfigureGet, []string{"settings.password"})).To(BeZero())
			Expect(strings.TrimSpace(out.String())).To(Equal("hunter2"))
		})

		It("stores the envelope directly with a set path", func() {
			Expect(dispatch(state.CmdConfigureInit)).To(BeZero())
			writeFile(dir, "settings.yml", "app: demo\n")

			c := newContext()
			c.SetPath = "settings.token"
			Expect(commands.Dispatch(ctx, c, state.CmdEncrypt, []string{"tok-123"})).To(BeZero())

			out.Reset()
			decrypting := newContext()
			decrypting.Decrypt = true
			Expect(commands.Dispatch(ctx, decrypting, state.CmdConfigureGet, []string{"settings.token"})).To(BeZero())
			Expect(strings.TrimSpace(out.String())).To(Equal("tok-123"))
		})
	})

	Describe("orchestrator commands", func() {
		It("starts the stack against the generated manifest", func() {
			initAndApply()
			Expect(dispatch(state.CmdServiceStart)).To(BeZero(), errOut.String())
			Expect(runner.bin).To(Equal("docker"))
			Expect(runner.dir).To(Equal(filepath.Join(dir, ".generated")))
			Expect(runner.args).To(Equal([]string{"compose", "--file", "docker-compose.yml", "up", "--detach"}))
		})

		It("hands the orchestrator a decrypted manifest copy", func() {
			Expect(dispatch(state.CmdConfigureInit)).To(BeZero())
			writeFile(dir, "settings.yml", "app: demo\n")

			out.Reset()
			Expect(dispatch(state.CmdEncrypt, "s3cret")).To(BeZero())
			envelope := strings.TrimSpace(out.String())
			writeFile(dir, "templates/docker-compose.yml",
				"services:\n  db:\n    environment:\n      PASSWORD: "+envelope+"\n")
			Expect(dispatch(state.CmdConfigureApply)).To(BeZero(), errOut.String())

			Expect(dispatch(state.CmdServiceStart)).To(BeZero(), errOut.String())
			Expect(runner.manifest).To(ContainSubstring("PASSWORD: s3cret"))

			// The committed manifest still carries only the envelope.
			data, err := os.ReadFile(filepath.Join(dir, ".generated", "docker-compose.yml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).NotTo(ContainSubstring("s3cret"))
		})

		It("passes explicit service names through", func() {
			initAndApply()
			Expect(dispatch(state.CmdServiceStatus, "web")).To(BeZero())
			Expect(runner.args).To(Equal([]string{"compose", "--file", "docker-compose.yml", "ps", "--all", "web"}))
		})

		It("runs one-off tasks with cleanup", func() {
			initAndApply()
			Expect(dispatch(state.CmdTaskRun, "migrator", "--dry-run")).To(BeZero())
			Expect(runner.args).To(Equal([]string{"compose", "--file", "docker-compose.yml", "run", "--rm", "migrator", "--dry-run"}))
		})

		It("prints the orchestrator output", func() {
			initAndApply()
			runner.result = orchestrator.ProcessResult{Stdout: "NAME STATUS\nweb running\n"}
			Expect(dispatch(state.CmdServiceStatus)).To(BeZero())
			Expect(out.String()).To(ContainSubstring("web running"))
		})

		It("folds a non-zero orchestrator exit into the exit code", func() {
			initAndApply()
			runner.result = orchestrator.ProcessResult{ReturnCode: 2}
			Expect(dispatch(state.CmdServiceStart)).To(Equal(1))
			Expect(errOut.String()).To(ContainSubstring("status 2"))
		})
	})

	Describe("debug-info", func() {
		It("reports the derived state and environment", func() {
			initAndApply()
			Expect(dispatch(state.CmdDebugInfo)).To(BeZero())
			report := out.String()
			Expect(report).To(ContainSubstring("clean"))
			Expect(report).To(ContainSubstring("1.0.0"))
			Expect(report).To(ContainSubstring("deployment/1.0.0"))
			Expect(report).To(ContainSubstring("encryption key"))
		})

		It("works before initialisation", func() {
			Expect(dispatch(state.CmdDebugInfo)).To(BeZero())
			Expect(out.String()).To(ContainSubstring("uninitialised"))
		})
	})

	Describe("migrate", func() {
		It("moves the configuration to the new version", func() {
			initAndApply()

			c := newContext()
			c.AppVersion = "2.0.0"
			Expect(commands.Dispatch(ctx, c, state.CmdMigrate, nil)).To(BeZero(), errOut.String())
			Expect(out.String()).To(ContainSubstring("2.0.0"))

			Expect(commands.Dispatch(ctx, c, state.CmdConfigureGet, []string{"settings.app"})).To(BeZero())
			Expect(out.String()).To(ContainSubstring("demo"))
		})
	})
})
