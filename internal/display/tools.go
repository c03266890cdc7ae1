package display

// ToolCard is one entry of the static tool grid.
type ToolCard struct {
	Icon        string
	Name        string
	Description string
}

var tools = [...]ToolCard{
	{Icon: "🏗️", Name: "Terraform", Description: "Infrastructure"},
	{Icon: "⚙️", Name: "Ansible", Description: "Deployment"},
	{Icon: "🎭", Name: "Puppet", Description: "Configuration"},
	{Icon: "📊", Name: "Nagios", Description: "Monitoring"},
}

// Tools returns a copy of the fixed tool list.
func Tools() []ToolCard {
	out := make([]ToolCard, len(tools))
	copy(out, tools[:])
	return out
}
