package browser

// Functions evaluated with Runtime.callFunctionOn inside a frame's isolated
// world. The isolated world shares the DOM with the page but none of its
// JavaScript, so page scripts cannot tamper with these helpers.

// jsProbeSelection returns the frame's selected text. Text controls are read
// through their offsets because not every engine reflects them in
// getSelection().
const jsProbeSelection = `function () {
	const el = document.activeElement;
	if (el && (el.tagName === 'TEXTAREA' || el.tagName === 'INPUT')) {
		try {
			const s = el.selectionStart, e = el.selectionEnd;
			if (typeof s === 'number' && typeof e === 'number' && s !== e) {
				return el.value.substring(s, e);
			}
		} catch (_) {}
	}
	const sel = window.getSelection();
	return sel ? sel.toString() : '';
}`

const jsHostname = `function () { return location.hostname; }`

const jsHasFocus = `function () { return document.hasFocus(); }`

// jsActiveElement returns the active element itself (not by value) so its
// backend node id can be compared with a frame owner.
const jsActiveElement = `function () { return document.activeElement; }`

// jsActiveControl returns null unless the active element is a text control.
// Inputs whose type has no selection API (email, number) report
// hasOffsets=false.
const jsActiveControl = `function () {
	const el = document.activeElement;
	if (!el) return null;
	const tag = el.tagName.toLowerCase();
	if (tag !== 'textarea' && tag !== 'input') return null;
	let start = null, end = null;
	try { start = el.selectionStart; end = el.selectionEnd; } catch (_) {}
	const hasOffsets = typeof start === 'number' && typeof end === 'number';
	return {
		tag: tag,
		type: el.type || '',
		value: el.value,
		start: hasOffsets ? start : 0,
		end: hasOffsets ? end : 0,
		hasOffsets: hasOffsets,
	};
}`

// jsSetControlValue writes through the prototype setter so frameworks that
// shadow the instance value property still observe the change.
const jsSetControlValue = `function (value, caret) {
	const el = document.activeElement;
	if (!el || (el.tagName !== 'TEXTAREA' && el.tagName !== 'INPUT')) {
		throw new Error('active element is no longer a text control');
	}
	const proto = el.tagName === 'TEXTAREA' ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
	const desc = Object.getOwnPropertyDescriptor(proto, 'value');
	if (desc && desc.set) {
		desc.set.call(el, value);
	} else {
		el.value = value;
	}
	try { el.setSelectionRange(caret, caret); } catch (_) {}
	el.dispatchEvent(new Event('input', { bubbles: true, cancelable: true }));
	el.dispatchEvent(new Event('change', { bubbles: true, cancelable: true }));
	return true;
}`

const jsSelectionState = `function () {
	const sel = window.getSelection();
	if (!sel) {
		return { rangeCount: 0, collapsed: true, anchorInDocument: false, editable: false, text: '' };
	}
	const anchor = sel.anchorNode;
	let editable = false;
	if (anchor) {
		const el = anchor.nodeType === Node.ELEMENT_NODE ? anchor : anchor.parentElement;
		editable = !!(el && el.isContentEditable);
	}
	return {
		rangeCount: sel.rangeCount,
		collapsed: sel.isCollapsed,
		anchorInDocument: !!anchor && anchor.ownerDocument === document,
		editable: editable,
		text: sel.toString(),
	};
}`

const jsMatchMarker = `function (selectors) {
	const sel = window.getSelection();
	const anchor = sel && sel.anchorNode;
	if (!anchor) return -1;
	const el = anchor.nodeType === Node.ELEMENT_NODE ? anchor : anchor.parentElement;
	if (!el) return -1;
	for (let i = 0; i < selectors.length; i++) {
		try {
			if (el.closest(selectors[i])) return i;
		} catch (_) {}
	}
	return -1;
}`

const jsExecInsertText = `function (text) {
	if (document.queryCommandSupported && !document.queryCommandSupported('insertText')) {
		return false;
	}
	return document.execCommand('insertText', false, text);
}`

const jsReplaceRange = `function (text) {
	const sel = window.getSelection();
	if (!sel || sel.rangeCount === 0) {
		throw new Error('selection has no range');
	}
	const range = sel.getRangeAt(0);
	range.deleteContents();
	const node = document.createTextNode(text);
	range.insertNode(node);
	range.setStartAfter(node);
	range.collapse(true);
	sel.removeAllRanges();
	sel.addRange(range);
	return true;
}`

// jsEditingHostPrelude resolves the contenteditable root around the selection anchor,
// falling back to the active element.
const jsEditingHostPrelude = `
	const sel = window.getSelection();
	let host = null;
	const anchor = sel && sel.anchorNode;
	if (anchor) {
		let el = anchor.nodeType === Node.ELEMENT_NODE ? anchor : anchor.parentElement;
		while (el && el.parentElement && el.parentElement.isContentEditable) el = el.parentElement;
		if (el && el.isContentEditable) host = el;
	}
	if (!host) host = document.activeElement;
	if (!host) throw new Error('no editing host');
`

const jsDispatchInput = `function (text) {` + jsEditingHostPrelude + `
	host.dispatchEvent(new InputEvent('input', {
		bubbles: true,
		cancelable: false,
		inputType: 'insertText',
		data: text,
	}));
	return true;
}`

const jsCollapseAfterInsertion = `function () {` + jsEditingHostPrelude + `
	const saved = sel && sel.rangeCount > 0 ? sel.getRangeAt(0).cloneRange() : null;
	if (typeof host.focus === 'function') host.focus();
	const s = window.getSelection();
	if (s && saved) {
		saved.collapse(false);
		s.removeAllRanges();
		s.addRange(saved);
	}
	return true;
}`

// jsAlert opens the modal after the call returns so callFunctionOn is not
// held open by the blocking dialog.
const jsAlert = `function (message) {
	setTimeout(function () { window.alert(message); }, 0);
	return true;
}`
