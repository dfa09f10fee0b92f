package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
)

var matchCmd = &cobra.Command{
	Use:   "match <url>",
	Short: "Show which variant set a tab URL belongs to",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

var switchCmd = &cobra.Command{
	Use:   "switch <url> <protocol> <domain>",
	Short: "Rewrite a tab URL onto another variant",
	Args:  cobra.ExactArgs(3),
	RunE:  runSwitch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	var resp domain.MatchResponse
	if err := call("POST", "/api/v1/match", domain.MatchRequest{URL: args[0]}, &resp); err != nil {
		return err
	}

	if resp.Matched == nil {
		pterm.Info.Printfln("No variant set matches %s://%s; add one first.", resp.Protocol, resp.Host)
		return nil
	}

	pterm.Success.Printfln("Matched set %s", resp.Matched.ID)
	if len(resp.Others) == 0 {
		pterm.Info.Println("No other variants to switch to.")
		return nil
	}

	rows := pterm.TableData{{"Switch to", "Protocol", "Domain"}}
	for _, v := range resp.Others {
		rows = append(rows, []string{v.Name, v.Protocol, v.Domain})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runSwitch(cmd *cobra.Command, args []string) error {
	req := domain.SwitchRequest{URL: args[0], Protocol: args[1], Domain: args[2]}

	var resp domain.SwitchResponse
	if err := call("POST", "/api/v1/switch", req, &resp); err != nil {
		return err
	}

	pterm.Println(resp.URL)
	return nil
}
