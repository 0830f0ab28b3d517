package browser

// bindingName is the page function that receives mutation reports
const bindingName = "__matchmateReport"

// observeScript installs one MutationObserver per scope name. It returns
// false when the scope root is not in the document.
const observeScript = `(scope) => {
  const registry = (window.__matchmateScopes = window.__matchmateScopes || {});
  if (registry[scope.name]) return true;
  const root = document.querySelector(scope.root);
  if (!root) return false;
  const observer = new MutationObserver((records) => {
    const added = [];
    for (const rec of records) {
      rec.addedNodes.forEach((node) => {
        if (node.nodeType === 1) added.push(node.outerHTML);
      });
    }
    if (added.length === 0) return;
    const report = { scope: scope.name, added: added };
    if (scope.includeContainer) report.container = root.outerHTML;
    window.` + bindingName + `(JSON.stringify(report));
  });
  observer.observe(root, { childList: true, subtree: true });
  registry[scope.name] = observer;
  return true;
}`
