package cmd

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rorical/RoriAge/internal/config"
	"github.com/Rorical/RoriAge/internal/vision"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage estimation profiles",
	Long:  `Manage profiles for the different face analysis providers.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		fmt.Printf("Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Println("Available Profiles:")
		for _, name := range sortedProfileNames(cfg, "") {
			profile := cfg.Profiles[name]
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			fmt.Printf("    Provider: %s\n", profile.Provider)
			printProfileTarget(profile, "    ")
			ready := "Yes"
			if err := profile.Ready(); err != nil {
				ready = "No (" + err.Error() + ")"
			}
			fmt.Printf("    Ready: %s\n", ready)
			fmt.Println()
		}
	},
}

var showYAML bool

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName := args[0]
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		if showYAML {
			out, err := profileYAML(profileName, profile)
			if err != nil {
				log.Fatalf("Failed to encode profile: %v", err)
			}
			fmt.Print(out)
			return
		}

		fmt.Printf("Profile: %s\n", profileName)
		fmt.Printf("Provider: %s\n", profile.Provider)
		printProfileTarget(profile, "")
		hasKey := "Not set"
		if profile.APIKey != "" {
			hasKey = "Set (hidden for security)"
		}
		fmt.Printf("API Key: %s\n", hasKey)
		if len(profile.CaptureCommand) > 0 {
			fmt.Printf("Capture command: %s\n", strings.Join(profile.CaptureCommand, " "))
		} else if profile.FramePath != "" {
			fmt.Printf("Frame file: %s\n", profile.FramePath)
		}
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			prompt := promptui.Prompt{
				Label: "Profile name",
			}
			profileName, err = prompt.Run()
			if err != nil {
				log.Fatalf("Prompt failed: %v", err)
			}
		}

		if _, exists := cfg.Profiles[profileName]; exists {
			log.Fatalf("Profile '%s' already exists", profileName)
		}

		profile, err := promptProfile(config.DefaultProfile())
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}

		cfg.Profiles[profileName] = profile
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' added successfully!\n", profileName)
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName := profileArg(cfg, args, "Select profile to edit")
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		profile, err = promptProfile(profile)
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}

		cfg.Profiles[profileName] = profile
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' updated successfully!\n", profileName)
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		profileName := profileArg(cfg, args, "Select profile to delete")
		if _, exists := cfg.Profiles[profileName]; !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'? (y/N)", profileName),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Deletion cancelled")
			return
		}

		removeProfile(cfg, profileName)

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' deleted successfully!\n", profileName)
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			names := sortedProfileNames(cfg, cfg.ActiveProfile)
			if len(names) == 0 {
				fmt.Println("No other profiles available to switch to")
				return
			}
			profileName = selectProfile("Select profile to switch to", names)
		}

		if err := cfg.UseProfile(profileName); err != nil {
			log.Fatalf("Cannot switch profile: %v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Switched to profile '%s'\n", profileName)
	},
}

// profileYAML renders a profile for copying into another config. The API
// key is never printed.
func profileYAML(name string, p config.Profile) (string, error) {
	if p.APIKey != "" {
		p.APIKey = "<hidden>"
	}
	out, err := yaml.Marshal(map[string]config.Profile{name: p})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func printProfileTarget(p config.Profile, indent string) {
	switch p.Provider {
	case config.ProviderWebSocket:
		fmt.Printf("%sEndpoint: %s\n", indent, p.Endpoint)
		fmt.Printf("%sModel files: %s\n", indent, p.ModelBaseURL)
	default:
		fmt.Printf("%sModel: %s\n", indent, p.Model)
		if p.BaseURL != "" {
			fmt.Printf("%sBase URL: %s\n", indent, p.BaseURL)
		}
	}
}

// promptProfile walks the user through every field the chosen provider
// uses, starting from current.
func promptProfile(current config.Profile) (config.Profile, error) {
	registry := vision.NewRegistry()
	vision.RegisterBuiltinBackends(registry)
	providers := registry.Names()

	cursor := 0
	for i, name := range providers {
		if name == current.Provider {
			cursor = i
		}
	}
	providerPrompt := promptui.Select{
		Label:     "Provider",
		Items:     providers,
		CursorPos: cursor,
	}
	_, provider, err := providerPrompt.Run()
	if err != nil {
		return current, err
	}

	p := current
	p.Provider = provider

	switch provider {
	case config.ProviderWebSocket:
		p.Model = ""
		if p.Endpoint, err = ask("Endpoint (ws://...)", p.Endpoint, validateURL); err != nil {
			return current, err
		}
		base := p.ModelBaseURL
		if base == "" {
			base = config.DefaultModelBaseURL
		}
		if p.ModelBaseURL, err = ask("Model files URL", base, validateURL); err != nil {
			return current, err
		}
	default:
		keyPrompt := promptui.Prompt{
			Label:   "API Key",
			Default: p.APIKey,
			Mask:    '*',
		}
		if p.APIKey, err = keyPrompt.Run(); err != nil {
			return current, err
		}
		if p.Model, err = ask("Model", modelFor(current, provider), nil); err != nil {
			return current, err
		}
		if p.BaseURL, err = ask("Base URL (optional)", p.BaseURL, optionalURL); err != nil {
			return current, err
		}
	}

	capture, err := ask("Capture command (optional, writes an image to stdout)", strings.Join(p.CaptureCommand, " "), nil)
	if err != nil {
		return current, err
	}
	p.CaptureCommand = strings.Fields(capture)
	if len(p.CaptureCommand) == 0 {
		if p.FramePath, err = ask("Frame file (optional)", p.FramePath, nil); err != nil {
			return current, err
		}
	}

	return p, nil
}

// modelFor keeps the current model while the provider stays the same and
// otherwise falls back to the provider's default.
func modelFor(current config.Profile, provider string) string {
	if current.Provider == provider && current.Model != "" {
		return current.Model
	}
	if provider == config.ProviderGemini {
		return vision.DefaultGeminiModel
	}
	return config.DefaultModel
}

func ask(label, def string, validate promptui.ValidateFunc) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  def,
		Validate: validate,
	}
	return prompt.Run()
}

func validateURL(s string) error {
	if !strings.Contains(s, "://") {
		return fmt.Errorf("expected a URL such as ws://host/path")
	}
	return nil
}

func optionalURL(s string) error {
	if s == "" {
		return nil
	}
	return validateURL(s)
}

// profileArg returns the profile named on the command line or asks for one.
func profileArg(cfg *config.Config, args []string, label string) string {
	if len(args) > 0 {
		return args[0]
	}
	names := sortedProfileNames(cfg, "")
	if len(names) == 0 {
		log.Fatalf("No profiles available")
	}
	return selectProfile(label, names)
}

func selectProfile(label string, names []string) string {
	prompt := promptui.Select{
		Label: label,
		Items: names,
	}
	_, name, err := prompt.Run()
	if err != nil {
		log.Fatalf("Selection failed: %v", err)
	}
	return name
}

func sortedProfileNames(cfg *config.Config, exclude string) []string {
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		if name != exclude {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// removeProfile deletes name and moves the active profile elsewhere when
// needed. Removing the last profile recreates the default one.
func removeProfile(cfg *config.Config, name string) {
	delete(cfg.Profiles, name)

	if len(cfg.Profiles) == 0 {
		cfg.Profiles[config.DefaultProfileName] = config.DefaultProfile()
	}
	if cfg.ActiveProfile == name {
		cfg.ActiveProfile = sortedProfileNames(cfg, "")[0]
	}
}

func init() {
	// Add subcommands to profile
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)

	showProfileCmd.Flags().BoolVar(&showYAML, "yaml", false, "print the profile as YAML")
}
