package renderer

// Terrain: per-vertex biome color, lambert lighting, linear distance fog.
const terrainVertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec3 aColor;

uniform mat4 uModel;
uniform mat4 uViewProj;

out vec3 vNormal;
out vec3 vColor;
out vec3 vWorldPos;

void main() {
    vec4 world = uModel * vec4(aPosition, 1.0);
    vWorldPos = world.xyz;
    vNormal = mat3(uModel) * aNormal;
    vColor = aColor;
    gl_Position = uViewProj * world;
}
`

const terrainFragmentShader = `#version 410 core

in vec3 vNormal;
in vec3 vColor;
in vec3 vWorldPos;

uniform vec3 uLightDir;
uniform float uAmbient;
uniform float uDiffuse;
uniform vec3 uCameraPos;
uniform vec3 uFogColor;
uniform float uFogNear;
uniform float uFogFar;

out vec4 FragColor;

void main() {
    float ndotl = max(dot(normalize(vNormal), uLightDir), 0.0);
    vec3 color = vColor * (uAmbient + uDiffuse * ndotl);

    float dist = length(vWorldPos - uCameraPos);
    float fog = clamp((dist - uFogNear) / (uFogFar - uFogNear), 0.0, 1.0);
    FragColor = vec4(mix(color, uFogColor, fog), 1.0);
}
`

// Instances: one model matrix per instance in attributes 2-5.
const instanceVertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in mat4 aInstance;

uniform mat4 uViewProj;

out vec3 vNormal;
out vec3 vWorldPos;

void main() {
    vec4 world = aInstance * vec4(aPosition, 1.0);
    vWorldPos = world.xyz;
    vNormal = mat3(aInstance) * aNormal;
    gl_Position = uViewProj * world;
}
`

const instanceFragmentShader = `#version 410 core

in vec3 vNormal;
in vec3 vWorldPos;

uniform vec3 uColor;
uniform vec3 uLightDir;
uniform float uAmbient;
uniform float uDiffuse;
uniform vec3 uCameraPos;
uniform vec3 uFogColor;
uniform float uFogNear;
uniform float uFogFar;

out vec4 FragColor;

void main() {
    float ndotl = max(dot(normalize(vNormal), uLightDir), 0.0);
    vec3 color = uColor * (uAmbient + uDiffuse * ndotl);

    float dist = length(vWorldPos - uCameraPos);
    float fog = clamp((dist - uFogNear) / (uFogFar - uFogNear), 0.0, 1.0);
    FragColor = vec4(mix(color, uFogColor, fog), 1.0);
}
`

const waterVertexShader = `#version 410 core

layout (location = 0) in vec3 aPosition;

uniform mat4 uViewProj;

out vec3 vWorldPos;

void main() {
    vWorldPos = aPosition;
    gl_Position = uViewProj * vec4(aPosition, 1.0);
}
`

const waterFragmentShader = `#version 410 core

in vec3 vWorldPos;

uniform vec3 uWaterColor;
uniform float uWaterAlpha;
uniform vec3 uCameraPos;
uniform vec3 uFogColor;
uniform float uFogNear;
uniform float uFogFar;

out vec4 FragColor;

void main() {
    float dist = length(vWorldPos - uCameraPos);
    float fog = clamp((dist - uFogNear) / (uFogFar - uFogNear), 0.0, 1.0);
    FragColor = vec4(mix(uWaterColor, uFogColor, fog), uWaterAlpha);
}
`
