package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all variant sets",
	RunE:  runList,
}

var addCmd = &cobra.Command{
	Use:   "add name=protocol://domain [name=protocol://domain ...]",
	Short: "Add a variant set; all members are given in one call",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <set-id>",
	Short: "Delete one variant set wholesale",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the whole collection to empty",
	RunE:  runReset,
}

func init() {
	listCmd.Flags().StringP("output", "o", "", "Output format (json)")
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}

func runList(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	var c domain.Collection
	if err := call("GET", "/api/v1/collection", nil, &c); err != nil {
		return err
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	if len(c.Sets) == 0 {
		pterm.Info.Println("No variant sets stored yet.")
		return nil
	}

	rows := pterm.TableData{{"Set ID", "Name", "Protocol", "Domain"}}
	for _, set := range c.Sets {
		for i, v := range set.Variants {
			id := set.ID
			if i > 0 {
				id = ""
			}
			rows = append(rows, []string{id, v.Name, v.Protocol, v.Domain})
		}
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

// parseVariantArg parses "Live=https://example.com" into a variant.
func parseVariantArg(arg string) (domain.Variant, error) {
	name, endpoint, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return domain.Variant{}, fmt.Errorf("expected name=protocol://domain, got %q", arg)
	}
	protocol, host, ok := strings.Cut(endpoint, "://")
	if !ok || protocol == "" || host == "" {
		return domain.Variant{}, fmt.Errorf("expected name=protocol://domain, got %q", arg)
	}
	return domain.Variant{Name: name, Protocol: protocol, Domain: host}, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	req := domain.CreateVariantSetRequest{}
	for _, arg := range args {
		v, err := parseVariantArg(arg)
		if err != nil {
			return err
		}
		req.Variants = append(req.Variants, v)
	}

	var set domain.VariantSet
	if err := call("POST", "/api/v1/collection/sets", req, &set); err != nil {
		return err
	}

	pterm.Success.Printfln("Added variant set %s with %d variants", set.ID, len(set.Variants))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := call("DELETE", "/api/v1/collection/sets/"+args[0], nil, nil); err != nil {
		return err
	}

	pterm.Success.Printfln("Deleted variant set %s", args[0])
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		confirmed, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText("Reset all data for all domains?").
			Show()
		if err != nil {
			return err
		}
		if !confirmed {
			pterm.Info.Println("Aborted.")
			return nil
		}
	}

	if err := call("POST", "/api/v1/collection/reset", nil, nil); err != nil {
		return err
	}

	pterm.Success.Println("Collection reset.")
	return nil
}
