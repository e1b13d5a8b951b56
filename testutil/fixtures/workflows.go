// Package fixtures 提供预置的画布定义与图结构。
package fixtures

import "github.com/BaSui01/flowcanvas/workflow"

// LinearDefinitionJSON 是 input → llm → output 的画布文档
const LinearDefinitionJSON = `{
	"id": "wf-1",
	"name": "linear",
	"nodes": [
		{"id": "input1", "type": "input", "data": {"inputType": "text", "defaultContent": "hello"}},
		{"id": "llm1", "type": "llm", "data": {"models": ["gpt-4o"], "prompt": "Echo: {input}"}},
		{"id": "output1", "type": "output", "data": {"outputFormat": "text"}}
	],
	"edges": [
		{"source": "input1", "target": "llm1"},
		{"source": "llm1", "target": "output1"}
	]
}`

// CyclicDefinitionJSON 包含 a ⇄ b 环路
const CyclicDefinitionJSON = `{
	"nodes": [
		{"id": "a", "type": "input", "data": {"inputType": "text", "defaultContent": "x"}},
		{"id": "b", "type": "output", "data": {"outputFormat": "text"}}
	],
	"edges": [
		{"source": "a", "target": "b"},
		{"source": "b", "target": "a"}
	]
}`

// MissingModelsDefinitionYAML 的 llm 节点没有配置模型
const MissingModelsDefinitionYAML = `
name: broken
nodes:
  - id: in
    type: input
    data:
      inputType: text
      defaultContent: hello
  - id: ask
    type: llm
    data:
      prompt: "no models"
edges:
  - source: in
    target: ask
`

// LinearGraph 返回与 LinearDefinitionJSON 等价的节点与边
func LinearGraph() ([]workflow.Node, []workflow.Edge) {
	nodes := []workflow.Node{
		workflow.NewInputNode("input1", "hello"),
		workflow.NewLLMNode("llm1", "Echo: {input}", "gpt-4o"),
		workflow.NewOutputNode("output1", workflow.OutputFormatText),
	}
	edges := []workflow.Edge{
		workflow.NewEdge("input1", "llm1"),
		workflow.NewEdge("llm1", "output1"),
	}
	return nodes, edges
}

// CompareGraph 返回 input → llm(两个模型) → compare → output
func CompareGraph(comparison workflow.ComparisonType) ([]workflow.Node, []workflow.Edge) {
	nodes := []workflow.Node{
		workflow.NewInputNode("input1", "What is Go?"),
		workflow.NewLLMNode("llm1", "Answer: {input}", "model-a", "model-b"),
		workflow.NewCompareNode("compare1", comparison),
		workflow.NewOutputNode("output1", workflow.OutputFormatMarkdown),
	}
	edges := []workflow.Edge{
		workflow.NewEdge("input1", "llm1"),
		workflow.NewEdge("llm1", "compare1"),
		workflow.NewEdge("compare1", "output1"),
	}
	return nodes, edges
}
