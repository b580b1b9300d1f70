package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"postcraft/internal/llm"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var envOrder = []string{
	"LLM_PROVIDER",
	"OPENAI_API_KEY",
	"GROQ_API_KEY",
	"GEMINI_API_KEY",
	"GOOGLE_CLOUD_PROJECT",
	"GOOGLE_CLOUD_LOCATION",
	"PORT",
}

var providerKeys = map[llm.Kind]struct {
	env  string
	link string
}{
	llm.KindOpenAI: {env: "OPENAI_API_KEY", link: "https://platform.openai.com/api-keys"},
	llm.KindGroq:   {env: "GROQ_API_KEY", link: "https://console.groq.com/keys"},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Postcraft",
	Long:  `Choose an LLM provider, store its credentials and write the .env file.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("Postcraft Setup"))

	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	kind, err := chooseProvider(env)
	if err != nil {
		return fmt.Errorf("choose provider: %w", err)
	}

	if kind == llm.KindGemini {
		if err := configureGCP(env, true); err != nil {
			return fmt.Errorf("configure google cloud: %w", err)
		}
	} else if err := configureAPIKey(env, kind); err != nil {
		return fmt.Errorf("configure api key: %w", err)
	}

	if err := configurePort(env); err != nil {
		return fmt.Errorf("configure port: %w", err)
	}

	return writeEnvFile(".env", env)
}

func chooseProvider(env map[string]string) (llm.Kind, error) {
	var choice string
	if err := huh.NewSelect[string]().
		Title("LLM provider").
		Options(
			huh.NewOption("OpenAI", string(llm.KindOpenAI)),
			huh.NewOption("Groq", string(llm.KindGroq)),
			huh.NewOption("Gemini on Vertex AI", string(llm.KindGemini)),
		).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	kind, err := llm.ParseKind(choice)
	if err != nil {
		return "", err
	}
	env["LLM_PROVIDER"] = string(kind)
	return kind, nil
}

func configureAPIKey(env map[string]string, kind llm.Kind) error {
	key := providerKeys[kind]

	var apiKey string
	if err := huh.NewInput().
		Title(key.env).
		Description(key.link).
		EchoMode(huh.EchoModePassword).
		Value(&apiKey).
		Validate(required(key.env)).
		Run(); err != nil {
		return err
	}
	apiKey = strings.TrimSpace(apiKey)

	var useSecretManager bool
	if commandExists("gcloud") {
		if err := huh.NewConfirm().
			Title("Store the key in Google Secret Manager?").
			Description("The server reads it at startup instead of from .env").
			Value(&useSecretManager).
			Run(); err != nil {
			return err
		}
	}

	if !useSecretManager {
		env[key.env] = apiKey
		return nil
	}

	if err := configureGCP(env, false); err != nil {
		return err
	}
	project := env["GOOGLE_CLOUD_PROJECT"]
	if project == "" {
		env[key.env] = apiKey
		return nil
	}

	if err := storeSecret(project, key.env, apiKey); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Secret Manager failed, writing key to .env: %v", err)))
		env[key.env] = apiKey
	}
	return nil
}

func configureGCP(env map[string]string, vertex bool) error {
	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return manualProject(env)
	}

	project, err := chooseGCPProject()
	if err != nil {
		return err
	}
	env["GOOGLE_CLOUD_PROJECT"] = project

	apis := []string{"secretmanager.googleapis.com"}
	if vertex {
		apis = append(apis, "aiplatform.googleapis.com")

		location := "us-central1"
		if err := huh.NewInput().
			Title("Vertex AI location").
			Value(&location).
			Run(); err != nil {
			return err
		}
		env["GOOGLE_CLOUD_LOCATION"] = strings.TrimSpace(location)
	}

	if err := enableGCPAPIs(project, apis); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}
	return nil
}

func manualProject(env map[string]string) error {
	var projectID string
	if err := huh.NewInput().
		Title("Google Cloud project ID").
		Value(&projectID).
		Validate(required("Project ID")).
		Run(); err != nil {
		return err
	}
	env["GOOGLE_CLOUD_PROJECT"] = strings.TrimSpace(projectID)
	return nil
}

func chooseGCPProject() (string, error) {
	existing := getActiveProject()
	if existing == "" {
		var projectID string
		if err := huh.NewInput().
			Title("Google Cloud project ID").
			Value(&projectID).
			Validate(required("Project ID")).
			Run(); err != nil {
			return "", err
		}
		return strings.TrimSpace(projectID), nil
	}

	choice := existing
	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
			huh.NewOption("Enter project ID manually", "manual"),
		).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}
	if choice != "manual" {
		return choice, nil
	}

	var projectID string
	if err := huh.NewInput().
		Title("Project ID").
		Value(&projectID).
		Validate(required("Project ID")).
		Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(projectID), nil
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func enableGCPAPIs(project string, apis []string) error {
	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd(nil, "gcloud", args...)
	})
}

// storeSecret creates the secret if needed and adds value as a new version.
func storeSecret(project, name, value string) error {
	return runWithSpinner("Storing "+name+" in Secret Manager", func() error {
		if err := runSetupCmd(nil, "gcloud", "secrets", "describe", name, "--project", project); err != nil {
			if err := runSetupCmd(nil, "gcloud", "secrets", "create", name, "--replication-policy", "automatic", "--project", project); err != nil {
				return err
			}
		}
		return runSetupCmd(strings.NewReader(value), "gcloud", "secrets", "versions", "add", name, "--data-file", "-", "--project", project)
	})
}

func configurePort(env map[string]string) error {
	port := "5000"
	if err := huh.NewInput().
		Title("HTTP port").
		Value(&port).
		Validate(validPort).
		Run(); err != nil {
		return err
	}
	env["PORT"] = strings.TrimSpace(port)
	return nil
}

func validPort(s string) error {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func renderEnv(env map[string]string) string {
	var b strings.Builder
	for _, key := range envOrder {
		if val, ok := env[key]; ok && val != "" {
			fmt.Fprintf(&b, "%s=%s\n", key, val)
		}
	}
	return b.String()
}

func writeEnvFile(path string, env map[string]string) error {
	if err := os.WriteFile(path, []byte(renderEnv(env)), 0600); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Optionally copy config.example.yaml to config.yaml and adjust models")
	fmt.Println("  2. Run: postcraft serve")
	fmt.Println("  3. Or try offline: postcraft generate -t social -f fields.json --dry-run")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(stdin *strings.Reader, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
