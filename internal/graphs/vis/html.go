package vis

// Verbs in order: background, title, legend, items, deny notice.
var html = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <style>
        * {
            margin: 0;
        }
        body {
            background: %s;
            font-family: sans-serif;
        }
        #mynetwork {
            width: 100vw;
            height: 100vh;
        }
        #legend {
            position: absolute;
            top: 16px;
            left: 16px;
            color: #d4d4d8;
            font-size: 12px;
        }
        #legend span {
            display: inline-block;
            width: 10px;
            height: 10px;
            border-radius: 50%%;
            margin-right: 6px;
        }
    </style>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <script type="text/javascript"
      src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
  </head>
  <body>
    <div id="mynetwork"></div>
    <div id="legend"></div>
    <script type="text/javascript">
document.title = %s;

const legend = %s;
const legendDiv = document.getElementById("legend");
for (const entry of legend) {
  const row = document.createElement("div");
  const swatch = document.createElement("span");
  swatch.style.background = entry.color;
  row.appendChild(swatch);
  row.appendChild(document.createTextNode(entry.label));
  legendDiv.appendChild(row);
}

let nodesAndEdges = [%s
];

var container = document.getElementById("mynetwork");

var data = {
  nodes: new vis.DataSet([]),
  edges: new vis.DataSet([]),
};

var options = {
  nodes: {
    shape: "dot",
    font: { color: "#e4e4e7" },
  },
  edges: {
    width: 1,
  },
  interaction: {
    hover: true,
  },
  physics: {
    enabled: true,
    solver: 'barnesHut',
    barnesHut: {
      gravitationalConstant: -3_000,
      springLength: 30,
    }
  }
};
var network = new vis.Network(container, data, options);

const denyNotice = %s;
network.on("click", function (params) {
  if (params.nodes.length !== 1) {
    return;
  }
  const node = data.nodes.get(params.nodes[0]);
  if (node && node.locked) {
    alert(denyNotice.replace("%%LABEL%%", node.label));
  }
});

let index = 0;

function addItem() {
    if (index < nodesAndEdges.length) {
        const item = nodesAndEdges[index];
        const dataType = item.type;

        if (dataType === "node") {
            data.nodes.add(item.data);
        } else if (dataType === "edge") {
            data.edges.add(item.data);
        }

        index++;
        setTimeout(addItem, 50); // milliseconds
    } else {
        network.fit({ animation: { duration: 800 } });
    }
}

addItem();
        </script>
  </body>
</html>`
